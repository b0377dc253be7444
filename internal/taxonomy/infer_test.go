package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roles-cli/internal/model"
)

func TestInferFromEnrichment(t *testing.T) {
	tests := []struct {
		seniority  string
		department string
		wantRole   model.Role
		wantConf   float64
	}{
		{"c_level", "engineering", model.RoleDecisionMaker, 0.70},
		{"c-level", "sales", model.RoleExecutiveSponsor, 0.70},
		{"cxo", "product", model.RoleDecisionMaker, 0.70},
		{"vp", "finance", model.RoleEconomicBuyer, 0.65},
		{"svp", "procurement", model.RoleEconomicBuyer, 0.65},
		{"vp", "marketing", model.RoleDecisionMaker, 0.60},
		{"director", "it", model.RoleTechnicalEvaluator, 0.60},
		{"senior_director", "sales", model.RoleChampion, 0.55},
		{"manager", "security", model.RoleTechnicalEvaluator, 0.55},
		{"manager", "operations", model.RoleChampion, 0.50},
		{"ic", "data", model.RoleTechnicalEvaluator, 0.50},
	}

	for _, tt := range tests {
		inf, ok := InferFromEnrichment(tt.seniority, tt.department)
		require.True(t, ok, "%s/%s", tt.seniority, tt.department)
		assert.Equal(t, tt.wantRole, inf.Role, "%s/%s", tt.seniority, tt.department)
		assert.InDelta(t, tt.wantConf, inf.Confidence, 0.0001)
		assert.NotEmpty(t, inf.Evidence)
	}
}

func TestInferFromEnrichmentNoSignal(t *testing.T) {
	for _, tc := range []struct{ sen, dep string }{
		{"", "engineering"},
		{"vp", ""},
		{"", ""},
		{"board_member", "finance"},
		{"ic", "sales"}, // non-technical ICs carry no signal
	} {
		_, ok := InferFromEnrichment(tc.sen, tc.dep)
		assert.False(t, ok, "%s/%s", tc.sen, tc.dep)
	}
}

func TestInferFromEnrichmentCaseAndSpace(t *testing.T) {
	inf, ok := InferFromEnrichment(" VP ", " Finance ")
	require.True(t, ok)
	assert.Equal(t, model.RoleEconomicBuyer, inf.Role)
}

func TestInferFromTitleOrderedRules(t *testing.T) {
	tests := []struct {
		title    string
		wantRole model.Role
		wantConf float64
	}{
		{"Chief Financial Officer", model.RoleEconomicBuyer, 0.55},
		{"CFO & Co-Founder", model.RoleEconomicBuyer, 0.55}, // CFO rule outranks founder
		{"CEO", model.RoleDecisionMaker, 0.55},
		{"Founder", model.RoleDecisionMaker, 0.55},
		{"VP Engineering", model.RoleEconomicBuyer, 0.50},
		{"Vice President of Sales", model.RoleEconomicBuyer, 0.50},
		{"Director of IT", model.RoleTechnicalEvaluator, 0.45},
		{"Engineering Manager", model.RoleChampion, 0.40},
		{"Head of Platform", model.RoleChampion, 0.40},
		{"Procurement Specialist", model.RoleBlocker, 0.35},
		{"General Counsel", model.RoleBlocker, 0.35},
		{"Senior Software Engineer", model.RoleTechnicalEvaluator, 0.35},
		{"Staff DevOps", model.RoleTechnicalEvaluator, 0.35},
		{"Business Analyst", model.RoleInfluencer, 0.30},
		{"Marketing Intern", model.RoleEndUser, 0.30},
	}

	for _, tt := range tests {
		inf, ok := InferFromTitle(tt.title)
		require.True(t, ok, tt.title)
		assert.Equal(t, tt.wantRole, inf.Role, tt.title)
		assert.InDelta(t, tt.wantConf, inf.Confidence, 0.0001, tt.title)
	}
}

func TestInferFromTitleNoMatch(t *testing.T) {
	for _, title := range []string{"", "   ", "Barista", "Consultant"} {
		_, ok := InferFromTitle(title)
		assert.False(t, ok, title)
	}
}

func TestIsSeniorTitle(t *testing.T) {
	senior := []string{"VP Sales", "Chief of Staff", "CEO", "Director, Ops", "Head of Data", "Founder", "Vice President"}
	for _, title := range senior {
		assert.True(t, IsSeniorTitle(title), title)
	}

	junior := []string{"Account Coordinator", "Software Engineer", "Analyst", ""}
	for _, title := range junior {
		assert.False(t, IsSeniorTitle(title), title)
	}
}

func TestFieldRoleBuiltins(t *testing.T) {
	tests := []struct {
		field string
		want  model.Role
	}{
		{"Champion__c", model.RoleChampion},
		{"Economic_Buyer__c", model.RoleEconomicBuyer},
		{"economic buyer contact", model.RoleEconomicBuyer},
		{"Budget_Holder", model.RoleEconomicBuyer},
		{"Decision_Maker__c", model.RoleDecisionMaker},
		{"Technical_Buyer", model.RoleTechnicalEvaluator},
		{"Exec_Sponsor__c", model.RoleExecutiveSponsor},
		{"primary_influencer", model.RoleInfluencer},
	}
	for _, tt := range tests {
		role, ok := FieldRole(tt.field, nil)
		require.True(t, ok, tt.field)
		assert.Equal(t, tt.want, role, tt.field)
	}
}

func TestFieldRoleOverridesWinOverPatterns(t *testing.T) {
	overrides := map[string]model.Role{"champion__c": model.RoleCoach}
	role, ok := FieldRole("Champion__c", overrides)
	require.True(t, ok)
	assert.Equal(t, model.RoleCoach, role)
}

func TestFieldRoleNoMatch(t *testing.T) {
	for _, field := range []string{"", "Amount__c", "CloseDate"} {
		_, ok := FieldRole(field, nil)
		assert.False(t, ok, field)
	}
}
