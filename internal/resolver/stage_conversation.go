package resolver

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// stageConversations joins conversation participant lists to known
// contacts and seeds (deal, contact) pairs that have no rows at all.
// Discovery-only: existing pairs are never touched, whatever their
// confidence. The seed role comes from title inference, defaulting to
// unknown.
func (e *Engine) stageConversations(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	available, err := e.store.HasConversations(ctx, workspaceID)
	if err != nil {
		return err
	}
	if !available {
		// No conversation source configured for this workspace; the
		// stage contributes zero candidates and the run continues.
		zap.L().Debug("resolver: no conversation data", zap.String("workspace", workspaceID))
		return nil
	}

	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		convs, err := e.store.ListConversations(ctx, workspaceID, deal.ID)
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			return nil
		}

		accountContacts, err := e.store.ListAccountContacts(ctx, workspaceID, deal.AccountID, 200)
		if err != nil {
			return err
		}

		seen := make(map[string]bool)
		for _, conv := range convs {
			for _, p := range conv.Participants {
				contact, err := matchParticipant(ctx, e.store, workspaceID, p, accountContacts)
				if err != nil {
					return err
				}
				if contact == nil {
					c.skip()
					continue
				}
				if seen[contact.ID] {
					continue
				}
				seen[contact.ID] = true

				role := model.RoleUnknown
				evidence := "conversation"
				if inf, ok := taxonomy.InferFromTitle(contact.Title); ok {
					role = inf.Role
					evidence = inf.Evidence
				}

				cand := Candidate{
					Role:       role,
					Source:     model.SourceConversationParticipant,
					Confidence: confConversation,
					Evidence:   evidence,
				}
				if err := e.gate.discoverAssign(ctx, workspaceID, deal.ID, contact.ID, cand, c); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
