package resolver

import (
	"context"

	"github.com/sells-group/roles-cli/internal/model"
)

// stageCrossDeal propagates a contact's established role from a sibling
// deal at the same account. Only contacts with no known role on the
// current deal are considered, and only sibling roles with confidence of
// at least 0.50 propagate.
func (e *Engine) stageCrossDeal(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		contacts, err := e.store.ListDealContacts(ctx, workspaceID, deal.ID)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			return nil
		}

		var siblings []model.Deal
		for _, contact := range contacts {
			known, err := e.pairHasKnownRole(ctx, workspaceID, deal.ID, contact.ID)
			if err != nil {
				return err
			}
			if known {
				continue
			}

			if siblings == nil {
				siblings, err = e.store.ListAccountDeals(ctx, workspaceID, deal.AccountID)
				if err != nil {
					return err
				}
			}

			role, found, err := e.bestSiblingRole(ctx, workspaceID, deal.ID, contact.ID, siblings)
			if err != nil {
				return err
			}
			if !found {
				c.skip()
				continue
			}

			cand := Candidate{
				Role:       role,
				Source:     model.SourceCrossDealMatch,
				Confidence: confCrossDeal,
				Evidence:   "sibling_deal",
			}
			if err := e.gate.tryAssign(ctx, workspaceID, deal.ID, contact.ID, cand, confCrossDeal, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// pairHasKnownRole reports whether any row for the pair carries a
// non-unknown role.
func (e *Engine) pairHasKnownRole(ctx context.Context, workspaceID, dealID, contactID string) (bool, error) {
	rows, err := e.store.PairAssignments(ctx, workspaceID, dealID, contactID)
	if err != nil {
		return false, err
	}
	for _, a := range rows {
		if a.BuyingRole != model.RoleUnknown && a.BuyingRole.IsCanonical() {
			return true, nil
		}
	}
	return false, nil
}

// bestSiblingRole returns the highest-confidence known role the contact
// plays on any other deal at the account, if it clears the propagation
// floor.
func (e *Engine) bestSiblingRole(ctx context.Context, workspaceID, dealID, contactID string, siblings []model.Deal) (model.Role, bool, error) {
	var best model.Role
	var bestConf float64

	for _, sib := range siblings {
		if sib.ID == dealID {
			continue
		}
		rows, err := e.store.PairAssignments(ctx, workspaceID, sib.ID, contactID)
		if err != nil {
			return "", false, err
		}
		for _, a := range rows {
			if a.BuyingRole == model.RoleUnknown || !a.BuyingRole.IsCanonical() {
				continue
			}
			if a.RoleConfidence >= crossDealMinKnown && a.RoleConfidence > bestConf {
				best = a.BuyingRole
				bestConf = a.RoleConfidence
			}
		}
	}
	return best, bestConf > 0, nil
}
