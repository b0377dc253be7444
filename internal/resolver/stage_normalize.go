package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/store"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// stageNormalize rewrites stored CRM-native rows whose buying_role is not
// a canonical value. Confidence is left exactly as ingested (assumed ~0.95
// at origin); only the role label changes, which makes the pass idempotent.
// dealID carries the run's scope so a deal-scoped run never touches rows
// outside it, even when the deal filter matched nothing.
func (e *Engine) stageNormalize(ctx context.Context, workspaceID, dealID string, c *counters) error {
	assignments, err := e.store.ListAssignments(ctx, workspaceID, store.AssignmentFilter{DealID: dealID})
	if err != nil {
		return eris.Wrap(err, "normalize: list assignments")
	}

	for _, a := range assignments {
		if a.BuyingRole.IsCanonical() {
			continue
		}
		c.candidates.Add(1)

		normalized := taxonomy.Normalize(string(a.BuyingRole))
		if err := e.store.UpdateAssignmentRole(ctx, a.ID, normalized); err != nil {
			return eris.Wrapf(err, "normalize: assignment %s", a.ID)
		}
		c.written.Add(1)
	}
	return nil
}
