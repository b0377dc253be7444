package store

import (
	"context"

	"github.com/sells-group/roles-cli/internal/model"
)

// DealFilter scopes a resolver run or stats computation.
type DealFilter struct {
	DealID        string `json:"deal_id,omitempty"`
	IncludeClosed bool   `json:"include_closed,omitempty"`
}

// AssignmentFilter specifies criteria for listing role assignments.
type AssignmentFilter struct {
	DealID    string `json:"deal_id,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Store defines persistence for the role-resolution engine. The CRM tables
// (deals, contacts, activities, conversations) are populated by the sync
// collaborator and only read here; role_assignments is the engine's output.
type Store interface {
	// Signal sources
	ListDeals(ctx context.Context, workspaceID string, filter DealFilter) ([]model.Deal, error)
	ListAccountDeals(ctx context.Context, workspaceID, accountID string) ([]model.Deal, error)
	ListDealContacts(ctx context.Context, workspaceID, dealID string) ([]model.Contact, error)
	ListAccountContacts(ctx context.Context, workspaceID, accountID string, limit int) ([]model.Contact, error)
	GetContact(ctx context.Context, workspaceID, contactID string) (*model.Contact, error)
	FindContactByEmail(ctx context.Context, workspaceID, email string) (*model.Contact, error)
	FindContactByCRMID(ctx context.Context, workspaceID, crmID string) (*model.Contact, error)
	FindContactsByName(ctx context.Context, workspaceID, firstName, lastName, accountID string) ([]model.Contact, error)
	ListActivities(ctx context.Context, workspaceID, dealID string) ([]model.Activity, error)
	ListConversations(ctx context.Context, workspaceID, dealID string) ([]model.Conversation, error)
	HasConversations(ctx context.Context, workspaceID string) (bool, error)
	FieldRoleMappings(ctx context.Context, workspaceID string) (map[string]model.Role, error)

	// Role assignments
	ListAssignments(ctx context.Context, workspaceID string, filter AssignmentFilter) ([]model.RoleAssignment, error)
	PairAssignments(ctx context.Context, workspaceID, dealID, contactID string) ([]model.RoleAssignment, error)
	MaxPairConfidence(ctx context.Context, workspaceID, dealID, contactID string) (maxConf float64, exists bool, err error)
	// UpsertAssignment writes a row keyed by (workspace, deal, contact,
	// source). An existing row is overwritten only when its confidence is
	// null or strictly lower than the incoming value; the returned bool
	// reports whether a write happened.
	UpsertAssignment(ctx context.Context, a model.RoleAssignment) (bool, error)
	UpdateAssignmentRole(ctx context.Context, id string, role model.Role) error
	BoostAssignment(ctx context.Context, id string, confidence float64, roleSource string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
