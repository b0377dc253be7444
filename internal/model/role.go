package model

import "time"

// Role is a canonical buying role in the purchase-committee taxonomy.
type Role string

const (
	RoleChampion           Role = "champion"
	RoleEconomicBuyer      Role = "economic_buyer"
	RoleDecisionMaker      Role = "decision_maker"
	RoleTechnicalEvaluator Role = "technical_evaluator"
	RoleInfluencer         Role = "influencer"
	RoleCoach              Role = "coach"
	RoleBlocker            Role = "blocker"
	RoleEndUser            Role = "end_user"
	RoleExecutiveSponsor   Role = "executive_sponsor"
	RoleUnknown            Role = "unknown"
)

// CanonicalRoles lists every value Normalize may return.
var CanonicalRoles = []Role{
	RoleChampion,
	RoleEconomicBuyer,
	RoleDecisionMaker,
	RoleTechnicalEvaluator,
	RoleInfluencer,
	RoleCoach,
	RoleBlocker,
	RoleEndUser,
	RoleExecutiveSponsor,
	RoleUnknown,
}

// IsCanonical reports whether r is a member of the closed taxonomy.
func (r Role) IsCanonical() bool {
	for _, c := range CanonicalRoles {
		if r == c {
			return true
		}
	}
	return false
}

// Resolver source tags. Each resolver strategy stamps the rows it creates;
// the boost pass appends SourceBoostSuffix to role_source without changing
// the row's key source.
const (
	SourceCRMContactRole         = "crm_contact_role"
	SourceCRMDealField           = "crm_deal_field"
	SourceConversationParticipant = "conversation_participant"
	SourceCrossDealMatch         = "cross_deal_match"
	SourceTitleMatch             = "title_match"
	SourceEnrichmentInference    = "enrichment_inference"
	SourceActivityInference      = "activity_inference"
	SourceActivityDiscovery      = "activity_discovery"
	SourceAccountSeniorityMatch  = "account_seniority_match"

	SourceBoostSuffix = "+enrichment_confirmed"
)

// MaxConfidence is the ceiling for role_confidence; the boost pass never
// raises a row above it.
const MaxConfidence = 0.95

// RoleAssignment is one witness of a (deal, contact) buying role. Multiple
// rows may exist for the same pair, one per key source.
type RoleAssignment struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	DealID      string `json:"deal_id"`
	ContactID   string `json:"contact_id"`
	Source      string `json:"source"`

	BuyingRole     Role    `json:"buying_role"`
	RoleSource     string  `json:"role_source"`
	RoleConfidence float64 `json:"role_confidence"`

	// Enrichment attributes are populated upstream and only read here,
	// except that the boost pass rewrites RoleConfidence/RoleSource.
	SeniorityVerified  string `json:"seniority_verified,omitempty"`
	DepartmentVerified string `json:"department_verified,omitempty"`
	EnrichmentStatus   string `json:"enrichment_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Boosted reports whether the row's role_source already carries the
// enrichment-confirmed suffix.
func (a RoleAssignment) Boosted() bool {
	return len(a.RoleSource) >= len(SourceBoostSuffix) &&
		a.RoleSource[len(a.RoleSource)-len(SourceBoostSuffix):] == SourceBoostSuffix
}
