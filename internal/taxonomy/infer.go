package taxonomy

import (
	"regexp"
	"strings"

	"github.com/sells-group/roles-cli/internal/model"
)

// Inference is a proposed role with the confidence its rule carries.
type Inference struct {
	Role       model.Role
	Confidence float64
	Evidence   string
}

// technicalDepartments marks verified department values whose individual
// contributors still evaluate product fit.
var technicalDepartments = map[string]bool{
	"engineering": true,
	"it":          true,
	"technology":  true,
	"product":     true,
	"data":        true,
	"security":    true,
}

// financeDepartments marks departments that own budget.
var financeDepartments = map[string]bool{
	"finance":     true,
	"accounting":  true,
	"procurement": true,
}

// InferFromEnrichment maps verified seniority x department attributes to a
// role. Returns false when either attribute is missing or the seniority is
// unrecognized; callers fall back to title matching.
func InferFromEnrichment(seniority, department string) (Inference, bool) {
	sen := strings.ToLower(strings.TrimSpace(seniority))
	dep := strings.ToLower(strings.TrimSpace(department))
	if sen == "" || dep == "" {
		return Inference{}, false
	}

	technical := technicalDepartments[dep]
	finance := financeDepartments[dep]

	switch sen {
	case "c_level", "c-level", "cxo":
		if technical {
			return Inference{Role: model.RoleDecisionMaker, Confidence: 0.70, Evidence: "c_level/" + dep}, true
		}
		return Inference{Role: model.RoleExecutiveSponsor, Confidence: 0.70, Evidence: "c_level/" + dep}, true
	case "vp", "svp", "evp":
		if finance {
			return Inference{Role: model.RoleEconomicBuyer, Confidence: 0.65, Evidence: "vp/" + dep}, true
		}
		return Inference{Role: model.RoleDecisionMaker, Confidence: 0.60, Evidence: "vp/" + dep}, true
	case "director", "senior_director":
		if technical {
			return Inference{Role: model.RoleTechnicalEvaluator, Confidence: 0.60, Evidence: "director/" + dep}, true
		}
		return Inference{Role: model.RoleChampion, Confidence: 0.55, Evidence: "director/" + dep}, true
	case "manager", "senior_manager":
		if technical {
			return Inference{Role: model.RoleTechnicalEvaluator, Confidence: 0.55, Evidence: "manager/" + dep}, true
		}
		return Inference{Role: model.RoleChampion, Confidence: 0.50, Evidence: "manager/" + dep}, true
	case "ic", "individual_contributor", "entry":
		if technical {
			return Inference{Role: model.RoleTechnicalEvaluator, Confidence: 0.50, Evidence: "ic/" + dep}, true
		}
		return Inference{}, false
	default:
		return Inference{}, false
	}
}

// titleRule pairs a compiled job-title pattern with the role and confidence
// it implies. Order matters; the first matching rule wins.
type titleRule struct {
	pattern    *regexp.Regexp
	role       model.Role
	confidence float64
	evidence   string
}

var titleRules = []titleRule{
	{regexp.MustCompile(`(?i)\b(cfo|chief financial)`), model.RoleEconomicBuyer, 0.55, "title:cfo"},
	{regexp.MustCompile(`(?i)\b(ceo|coo|cto|cio|ciso|cro|cpo|chief|founder|president|owner)\b`), model.RoleDecisionMaker, 0.55, "title:c_suite"},
	{regexp.MustCompile(`(?i)\b(vp|svp|evp|vice president)\b`), model.RoleEconomicBuyer, 0.50, "title:vp"},
	{regexp.MustCompile(`(?i)\bdirector\b`), model.RoleTechnicalEvaluator, 0.45, "title:director"},
	{regexp.MustCompile(`(?i)\b(manager|lead|head)\b`), model.RoleChampion, 0.40, "title:manager"},
	{regexp.MustCompile(`(?i)\b(procurement|purchasing|legal|counsel|compliance)\b`), model.RoleBlocker, 0.35, "title:procurement_legal"},
	{regexp.MustCompile(`(?i)\b(engineer|developer|architect|devops|sre)\b`), model.RoleTechnicalEvaluator, 0.35, "title:engineer"},
	{regexp.MustCompile(`(?i)\banalyst\b`), model.RoleInfluencer, 0.30, "title:analyst"},
	{regexp.MustCompile(`(?i)\bintern\b`), model.RoleEndUser, 0.30, "title:intern"},
}

// InferFromTitle matches a free-text job title against the ordered rule
// table. Returns false when the title is empty or nothing matches.
func InferFromTitle(title string) (Inference, bool) {
	t := strings.TrimSpace(title)
	if t == "" {
		return Inference{}, false
	}
	for _, rule := range titleRules {
		if rule.pattern.MatchString(t) {
			return Inference{Role: rule.role, Confidence: rule.confidence, Evidence: rule.evidence}, true
		}
	}
	return Inference{}, false
}

// seniorTitle matches titles worth seeding on deals that have no linked
// contacts at all.
var seniorTitle = regexp.MustCompile(`(?i)\b(chief|c[efiost]o|vp|svp|evp|vice president|president|founder|owner|director|head)\b`)

// IsSeniorTitle reports whether a title looks senior enough for the
// account-seniority discovery sweep.
func IsSeniorTitle(title string) bool {
	return seniorTitle.MatchString(title)
}

// fieldPatterns maps substrings of CRM custom-field names to roles, checked
// in order. A workspace's configured mappings are merged over these at run
// time.
var fieldPatterns = []struct {
	substr string
	role   model.Role
}{
	{"economic_buyer", model.RoleEconomicBuyer},
	{"economic buyer", model.RoleEconomicBuyer},
	{"budget_holder", model.RoleEconomicBuyer},
	{"decision_maker", model.RoleDecisionMaker},
	{"decision maker", model.RoleDecisionMaker},
	{"technical_buyer", model.RoleTechnicalEvaluator},
	{"technical_evaluator", model.RoleTechnicalEvaluator},
	{"evaluator", model.RoleTechnicalEvaluator},
	{"executive_sponsor", model.RoleExecutiveSponsor},
	{"exec_sponsor", model.RoleExecutiveSponsor},
	{"champion", model.RoleChampion},
	{"influencer", model.RoleInfluencer},
	{"coach", model.RoleCoach},
	{"blocker", model.RoleBlocker},
}

// FieldRole resolves a CRM custom-field name to the role it designates.
// Workspace overrides are checked first (exact, case-insensitive), then
// the built-in substring patterns.
func FieldRole(fieldName string, overrides map[string]model.Role) (model.Role, bool) {
	name := strings.ToLower(strings.TrimSpace(fieldName))
	if name == "" {
		return "", false
	}
	if overrides != nil {
		if r, ok := overrides[name]; ok {
			return r, true
		}
	}
	for _, fp := range fieldPatterns {
		if strings.Contains(name, fp.substr) {
			return fp.role, true
		}
	}
	return "", false
}
