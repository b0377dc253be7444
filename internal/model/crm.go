package model

import "time"

// Deal is a CRM opportunity as synced by the upstream ETL. CustomFields is
// the raw free-form field map; no shape is assumed beyond scalar values.
type Deal struct {
	ID           string            `json:"id"`
	WorkspaceID  string            `json:"workspace_id"`
	AccountID    string            `json:"account_id"`
	Name         string            `json:"name"`
	Stage        string            `json:"stage"`
	Closed       bool              `json:"closed"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Contact is a known person at an account. Seniority/Department are the
// verified attributes written by the enrichment collaborator; empty when
// enrichment has not run or did not verify.
type Contact struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	AccountID   string    `json:"account_id"`
	CRMID       string    `json:"crm_id,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Title       string    `json:"title,omitempty"`
	Seniority   string    `json:"seniority,omitempty"`
	Department  string    `json:"department,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name with a single space.
func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// ActivityType classifies a recorded interaction.
type ActivityType string

const (
	ActivityEmail   ActivityType = "email"
	ActivityCall    ActivityType = "call"
	ActivityMeeting ActivityType = "meeting"
)

// Activity is one interaction between a contact and a deal.
type Activity struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	DealID      string       `json:"deal_id"`
	ContactID   string       `json:"contact_id"`
	Type        ActivityType `json:"type"`
	OccurredAt  time.Time    `json:"occurred_at"`
}

// Participant is one attendee on a recorded conversation. Email may be
// empty for dial-in attendees; Name may be empty for bare addresses.
type Participant struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Conversation is a recorded call or meeting linked to a deal.
type Conversation struct {
	ID           string        `json:"id"`
	WorkspaceID  string        `json:"workspace_id"`
	DealID       string        `json:"deal_id"`
	Participants []Participant `json:"participants"`
	OccurredAt   time.Time     `json:"occurred_at"`
}
