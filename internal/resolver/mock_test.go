package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/store"
)

// memStore implements store.Store in memory with the same conditional
// upsert semantics as the SQL backends. A zero RoleConfidence plays the
// part of the NULL column value.
type memStore struct {
	mu sync.Mutex

	deals         []model.Deal
	dealContacts  map[string][]model.Contact
	contacts      map[string]model.Contact
	activities    map[string][]model.Activity
	conversations map[string][]model.Conversation
	fieldMappings map[string]model.Role
	assignments   map[string]model.RoleAssignment
}

func newMemStore() *memStore {
	return &memStore{
		dealContacts:  make(map[string][]model.Contact),
		contacts:      make(map[string]model.Contact),
		activities:    make(map[string][]model.Activity),
		conversations: make(map[string][]model.Conversation),
		fieldMappings: make(map[string]model.Role),
		assignments:   make(map[string]model.RoleAssignment),
	}
}

func (m *memStore) addDeal(d model.Deal, contacts ...model.Contact) {
	m.deals = append(m.deals, d)
	for _, c := range contacts {
		m.dealContacts[d.ID] = append(m.dealContacts[d.ID], c)
		m.contacts[c.ID] = c
	}
}

func (m *memStore) addContact(c model.Contact) {
	m.contacts[c.ID] = c
}

func (m *memStore) seedAssignment(a model.RoleAssignment) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	m.assignments[assignKey(a)] = a
}

func assignKey(a model.RoleAssignment) string {
	return a.WorkspaceID + "|" + a.DealID + "|" + a.ContactID + "|" + a.Source
}

func (m *memStore) ListDeals(_ context.Context, workspaceID string, filter store.DealFilter) ([]model.Deal, error) {
	var out []model.Deal
	for _, d := range m.deals {
		if d.WorkspaceID != workspaceID {
			continue
		}
		if filter.DealID != "" && d.ID != filter.DealID {
			continue
		}
		if d.Closed && !filter.IncludeClosed {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) ListAccountDeals(_ context.Context, workspaceID, accountID string) ([]model.Deal, error) {
	var out []model.Deal
	for _, d := range m.deals {
		if d.WorkspaceID == workspaceID && d.AccountID == accountID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memStore) ListDealContacts(_ context.Context, _ string, dealID string) ([]model.Contact, error) {
	return m.dealContacts[dealID], nil
}

func (m *memStore) ListAccountContacts(_ context.Context, workspaceID, accountID string, limit int) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.WorkspaceID == workspaceID && c.AccountID == accountID {
			out = append(out, c)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) GetContact(_ context.Context, _ string, contactID string) (*model.Contact, error) {
	if c, ok := m.contacts[contactID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) FindContactByEmail(_ context.Context, workspaceID, email string) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.WorkspaceID == workspaceID && strings.EqualFold(c.Email, email) {
			contact := c
			return &contact, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindContactByCRMID(_ context.Context, workspaceID, crmID string) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.WorkspaceID == workspaceID && c.CRMID == crmID {
			contact := c
			return &contact, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindContactsByName(_ context.Context, workspaceID, firstName, lastName, accountID string) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if accountID != "" && c.AccountID != accountID {
			continue
		}
		if strings.EqualFold(c.FirstName, firstName) && strings.EqualFold(c.LastName, lastName) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) ListActivities(_ context.Context, _ string, dealID string) ([]model.Activity, error) {
	return m.activities[dealID], nil
}

func (m *memStore) ListConversations(_ context.Context, _ string, dealID string) ([]model.Conversation, error) {
	return m.conversations[dealID], nil
}

func (m *memStore) HasConversations(_ context.Context, _ string) (bool, error) {
	return len(m.conversations) > 0, nil
}

func (m *memStore) FieldRoleMappings(_ context.Context, _ string) (map[string]model.Role, error) {
	return m.fieldMappings, nil
}

func (m *memStore) ListAssignments(_ context.Context, workspaceID string, filter store.AssignmentFilter) ([]model.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.RoleAssignment
	for _, a := range m.assignments {
		if a.WorkspaceID != workspaceID {
			continue
		}
		if filter.DealID != "" && a.DealID != filter.DealID {
			continue
		}
		if filter.ContactID != "" && a.ContactID != filter.ContactID {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) PairAssignments(_ context.Context, workspaceID, dealID, contactID string) ([]model.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.RoleAssignment
	for _, a := range m.assignments {
		if a.WorkspaceID == workspaceID && a.DealID == dealID && a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) MaxPairConfidence(_ context.Context, workspaceID, dealID, contactID string) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var max float64
	var exists bool
	for _, a := range m.assignments {
		if a.WorkspaceID == workspaceID && a.DealID == dealID && a.ContactID == contactID {
			exists = true
			if a.RoleConfidence > max {
				max = a.RoleConfidence
			}
		}
	}
	return max, exists, nil
}

func (m *memStore) UpsertAssignment(_ context.Context, a model.RoleAssignment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := assignKey(a)
	existing, ok := m.assignments[key]
	if ok && existing.RoleConfidence != 0 && existing.RoleConfidence >= a.RoleConfidence {
		return false, nil
	}

	if ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		a.SeniorityVerified = existing.SeniorityVerified
		a.DepartmentVerified = existing.DepartmentVerified
		a.EnrichmentStatus = existing.EnrichmentStatus
	} else {
		a.ID = uuid.NewString()
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = time.Now().UTC()
	m.assignments[key] = a
	return true, nil
}

func (m *memStore) UpdateAssignmentRole(_ context.Context, id string, role model.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, a := range m.assignments {
		if a.ID == id {
			a.BuyingRole = role
			a.UpdatedAt = time.Now().UTC()
			m.assignments[key] = a
			return nil
		}
	}
	return nil
}

func (m *memStore) BoostAssignment(_ context.Context, id string, confidence float64, roleSource string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, a := range m.assignments {
		if a.ID == id {
			a.RoleConfidence = confidence
			a.RoleSource = roleSource
			a.UpdatedAt = time.Now().UTC()
			m.assignments[key] = a
			return nil
		}
	}
	return nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

// pair returns every stored row for the pair, ignoring source.
func (m *memStore) pair(dealID, contactID string) []model.RoleAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.RoleAssignment
	for _, a := range m.assignments {
		if a.DealID == dealID && a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out
}

// row returns the stored row for one exact key, nil when absent.
func (m *memStore) row(workspaceID, dealID, contactID, source string) *model.RoleAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assignments[workspaceID+"|"+dealID+"|"+contactID+"|"+source]
	if !ok {
		return nil
	}
	return &a
}
