package resolver

import (
	"context"
	"strings"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// stageCRMFields scans each deal's free-form custom-field map against the
// merged pattern table (built-ins plus workspace overrides). A matched
// field's value is resolved to a contact by email, CRM id, then name; the
// hit is proposed at the stage's 0.90 gate and confidence.
func (e *Engine) stageCRMFields(ctx context.Context, workspaceID string, deals []model.Deal, overrides map[string]model.Role, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		if len(deal.CustomFields) == 0 {
			return nil
		}

		for fieldName, value := range deal.CustomFields {
			role, ok := taxonomy.FieldRole(fieldName, overrides)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}

			contact, err := matchContactByValue(ctx, e.store, workspaceID, value, deal.AccountID)
			if err != nil {
				return err
			}
			if contact == nil {
				c.skip()
				continue
			}

			cand := Candidate{
				Role:       role,
				Source:     model.SourceCRMDealField,
				Confidence: confCRMField,
				Evidence:   "field:" + fieldName,
			}
			if err := e.gate.tryAssign(ctx, workspaceID, deal.ID, contact.ID, cand, confCRMField, c); err != nil {
				return err
			}
		}
		return nil
	})
}
