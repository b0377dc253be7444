package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/store"
)

// gate enforces the two-level merge guard: a cross-source confidence check
// over every row for the pair, then the store's conditional upsert on the
// per-source key. Within a stage each deal is handled by a single worker,
// so the check-then-write sequence has one writer per pair.
type gate struct {
	store store.Store
}

// tryAssign writes the candidate unless an existing row for the pair (any
// source) already meets the gate threshold. A gated or tied candidate is
// dropped silently; that is steady-state behavior, not an error.
func (g *gate) tryAssign(ctx context.Context, workspaceID, dealID, contactID string, cand Candidate, threshold float64, c *counters) error {
	c.candidates.Add(1)

	maxConf, _, err := g.store.MaxPairConfidence(ctx, workspaceID, dealID, contactID)
	if err != nil {
		return eris.Wrap(err, "gate: pair confidence")
	}
	if maxConf >= threshold {
		c.gated.Add(1)
		return nil
	}

	wrote, err := g.store.UpsertAssignment(ctx, model.RoleAssignment{
		WorkspaceID:    workspaceID,
		DealID:         dealID,
		ContactID:      contactID,
		Source:         cand.Source,
		BuyingRole:     cand.Role,
		RoleSource:     cand.Source,
		RoleConfidence: cand.Confidence,
	})
	if err != nil {
		return eris.Wrap(err, "gate: upsert")
	}
	if wrote {
		c.written.Add(1)
	} else {
		c.gated.Add(1)
	}
	return nil
}

// discoverAssign writes the candidate only when the pair has no rows at
// all. Discovery stages never compete with existing assignments.
func (g *gate) discoverAssign(ctx context.Context, workspaceID, dealID, contactID string, cand Candidate, c *counters) error {
	c.candidates.Add(1)

	_, exists, err := g.store.MaxPairConfidence(ctx, workspaceID, dealID, contactID)
	if err != nil {
		return eris.Wrap(err, "gate: pair lookup")
	}
	if exists {
		c.gated.Add(1)
		return nil
	}

	wrote, err := g.store.UpsertAssignment(ctx, model.RoleAssignment{
		WorkspaceID:    workspaceID,
		DealID:         dealID,
		ContactID:      contactID,
		Source:         cand.Source,
		BuyingRole:     cand.Role,
		RoleSource:     cand.Source,
		RoleConfidence: cand.Confidence,
	})
	if err != nil {
		return eris.Wrap(err, "gate: discovery upsert")
	}
	if wrote {
		c.written.Add(1)
	} else {
		c.gated.Add(1)
	}
	return nil
}
