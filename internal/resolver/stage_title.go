package resolver

import (
	"context"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// stageTitleInference proposes roles from contact attributes: the verified
// seniority x department lattice when enrichment has run, otherwise the
// ordered job-title regex table. The gate threshold equals the candidate's
// own confidence, so any equally-trusted existing row blocks the write.
func (e *Engine) stageTitleInference(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		contacts, err := e.store.ListDealContacts(ctx, workspaceID, deal.ID)
		if err != nil {
			return err
		}

		for _, contact := range contacts {
			inf, source, ok := inferContactRole(contact)
			if !ok {
				c.skip()
				continue
			}

			cand := Candidate{
				Role:       inf.Role,
				Source:     source,
				Confidence: inf.Confidence,
				Evidence:   inf.Evidence,
			}
			if err := e.gate.tryAssign(ctx, workspaceID, deal.ID, contact.ID, cand, inf.Confidence, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// inferContactRole applies the two-tier rule: verified enrichment
// attributes first, free-text title as fallback.
func inferContactRole(contact model.Contact) (taxonomy.Inference, string, bool) {
	if inf, ok := taxonomy.InferFromEnrichment(contact.Seniority, contact.Department); ok {
		return inf, model.SourceEnrichmentInference, true
	}
	if inf, ok := taxonomy.InferFromTitle(contact.Title); ok {
		return inf, model.SourceTitleMatch, true
	}
	return taxonomy.Inference{}, "", false
}
