package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/store"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// stageBoost raises the confidence of assignments whose role is
// independently confirmed by verified enrichment attributes. The boost is
// applied at most once per row; the role_source suffix is the marker.
func (e *Engine) stageBoost(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		rows, err := e.store.ListAssignments(ctx, workspaceID, store.AssignmentFilter{DealID: deal.ID})
		if err != nil {
			return eris.Wrap(err, "boost: list assignments")
		}

		contacts := make(map[string]*model.Contact)
		for _, row := range rows {
			if row.BuyingRole == model.RoleUnknown || row.Boosted() || row.RoleConfidence >= model.MaxConfidence || row.RoleConfidence <= 0 {
				continue
			}
			c.candidates.Add(1)

			sen, dep := row.SeniorityVerified, row.DepartmentVerified
			if sen == "" || dep == "" {
				contact, ok := contacts[row.ContactID]
				if !ok {
					contact, err = e.store.GetContact(ctx, workspaceID, row.ContactID)
					if err != nil {
						return eris.Wrap(err, "boost: get contact")
					}
					contacts[row.ContactID] = contact
				}
				if contact != nil {
					if sen == "" {
						sen = contact.Seniority
					}
					if dep == "" {
						dep = contact.Department
					}
				}
			}

			inf, ok := taxonomy.InferFromEnrichment(sen, dep)
			if !ok || inf.Role != row.BuyingRole {
				c.skipped.Add(1)
				continue
			}

			boosted := row.RoleConfidence + boostDelta
			if boosted > model.MaxConfidence {
				boosted = model.MaxConfidence
			}
			if err := e.store.BoostAssignment(ctx, row.ID, boosted, row.RoleSource+model.SourceBoostSuffix); err != nil {
				return eris.Wrap(err, "boost: update")
			}
			c.written.Add(1)
		}
		return nil
	})
}
