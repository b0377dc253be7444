package resolver

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// accountContactLimit caps how many account contacts the seniority sweep
// scans per deal.
const accountContactLimit = 200

// senioritySeedLimit caps how many senior contacts get seeded onto a deal
// that has no linked contacts at all.
const senioritySeedLimit = 10

// stageDiscovery runs the two trailing sweeps that surface contacts no
// earlier strategy touched. Both use discoverAssign, so they never compete
// with rows that already exist for a pair.
func (e *Engine) stageDiscovery(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		contacts, err := e.store.ListDealContacts(ctx, workspaceID, deal.ID)
		if err != nil {
			return eris.Wrap(err, "discovery: list deal contacts")
		}

		if err := e.sweepActiveUnlinked(ctx, workspaceID, deal, contacts, c); err != nil {
			return err
		}
		if len(contacts) == 0 {
			if err := e.sweepAccountSeniority(ctx, workspaceID, deal, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// sweepActiveUnlinked seeds contacts that show repeated activity on a deal
// without being linked to it in the CRM.
func (e *Engine) sweepActiveUnlinked(ctx context.Context, workspaceID string, deal model.Deal, linked []model.Contact, c *counters) error {
	acts, err := e.store.ListActivities(ctx, workspaceID, deal.ID)
	if err != nil {
		return eris.Wrap(err, "discovery: list activities")
	}
	if len(acts) == 0 {
		return nil
	}

	linkedIDs := make(map[string]bool, len(linked))
	for _, contact := range linked {
		linkedIDs[contact.ID] = true
	}

	counts := make(map[string]int)
	for _, a := range acts {
		counts[a.ContactID]++
	}

	for contactID, n := range counts {
		if n < 2 || linkedIDs[contactID] {
			continue
		}
		contact, err := e.store.GetContact(ctx, workspaceID, contactID)
		if err != nil {
			return eris.Wrap(err, "discovery: get contact")
		}
		cand := Candidate{
			Role:       model.RoleUnknown,
			Source:     model.SourceActivityDiscovery,
			Confidence: confActivityDisc,
			Evidence:   "unlinked_activity",
		}
		if contact != nil {
			if inf, ok := taxonomy.InferFromTitle(contact.Title); ok {
				cand.Role = inf.Role
				cand.Evidence = inf.Evidence
			}
		}
		if err := e.gate.discoverAssign(ctx, workspaceID, deal.ID, contactID, cand, c); err != nil {
			return err
		}
	}
	return nil
}

// sweepAccountSeniority seeds senior account contacts onto deals with no
// linked contacts, so the deal at least starts with plausible names.
func (e *Engine) sweepAccountSeniority(ctx context.Context, workspaceID string, deal model.Deal, c *counters) error {
	contacts, err := e.store.ListAccountContacts(ctx, workspaceID, deal.AccountID, accountContactLimit)
	if err != nil {
		return eris.Wrap(err, "discovery: list account contacts")
	}

	seeded := 0
	for _, contact := range contacts {
		if seeded >= senioritySeedLimit {
			break
		}
		if !taxonomy.IsSeniorTitle(contact.Title) {
			continue
		}
		cand := Candidate{
			Role:       model.RoleUnknown,
			Source:     model.SourceAccountSeniorityMatch,
			Confidence: confSeniorityDisc,
			Evidence:   "senior_title",
		}
		if inf, ok := taxonomy.InferFromTitle(contact.Title); ok {
			cand.Role = inf.Role
			cand.Evidence = inf.Evidence
		}
		if err := e.gate.discoverAssign(ctx, workspaceID, deal.ID, contact.ID, cand, c); err != nil {
			return err
		}
		seeded++
	}
	return nil
}
