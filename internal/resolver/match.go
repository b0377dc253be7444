package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/store"
)

var folder = cases.Fold()

// foldKey normalizes an email or name for comparison with full Unicode
// case folding.
func foldKey(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// matchContactByValue resolves a CRM custom-field value to a contact: email
// first, then CRM-native id, then "First Last" scoped to the account with a
// workspace-wide fallback. Zero or multiple name matches count as ambiguous
// and return nil; no uncertain write happens.
func matchContactByValue(ctx context.Context, st store.Store, workspaceID, value, accountID string) (*model.Contact, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, nil
	}

	if strings.Contains(v, "@") {
		return st.FindContactByEmail(ctx, workspaceID, v)
	}

	if c, err := st.FindContactByCRMID(ctx, workspaceID, v); err != nil || c != nil {
		return c, err
	}

	parts := strings.Fields(v)
	if len(parts) < 2 {
		return nil, nil
	}
	first := parts[0]
	last := strings.Join(parts[1:], " ")

	matches, err := st.FindContactsByName(ctx, workspaceID, first, last, accountID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 && accountID != "" {
		matches, err = st.FindContactsByName(ctx, workspaceID, first, last, "")
		if err != nil {
			return nil, err
		}
	}
	if len(matches) != 1 {
		return nil, nil
	}
	return &matches[0], nil
}

// matchParticipant joins a conversation participant to a known contact,
// by folded email first, then by fuzzy full-name match against the
// account's contacts. An ambiguous fuzzy result (two candidates at the
// same distance) is dropped.
func matchParticipant(ctx context.Context, st store.Store, workspaceID string, p model.Participant, accountContacts []model.Contact) (*model.Contact, error) {
	if p.Email != "" {
		c, err := st.FindContactByEmail(ctx, workspaceID, p.Email)
		if err != nil || c != nil {
			return c, err
		}
	}
	if p.Name == "" {
		return nil, nil
	}
	return fuzzyMatchContact(p.Name, accountContacts), nil
}

func fuzzyMatchContact(name string, contacts []model.Contact) *model.Contact {
	if len(contacts) == 0 {
		return nil
	}
	names := make([]string, len(contacts))
	for i, c := range contacts {
		names[i] = c.FullName()
	}

	ranks := fuzzy.RankFindNormalizedFold(foldKey(name), names)
	if len(ranks) == 0 {
		return nil
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[1].Distance == ranks[0].Distance {
		return nil
	}
	return &contacts[ranks[0].OriginalIndex]
}
