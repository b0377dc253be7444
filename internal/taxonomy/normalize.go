// Package taxonomy holds the canonical buying-role vocabulary and the
// static tables that map CRM labels, job titles, and verified enrichment
// attributes onto it. Everything here is immutable configuration data;
// all functions are pure.
package taxonomy

import (
	"strings"

	"github.com/sells-group/roles-cli/internal/model"
)

// synonyms maps lower-cased free-text CRM labels to canonical roles.
// Lookup is exact after trimming and lower-casing; unmatched input is
// RoleUnknown.
var synonyms = map[string]model.Role{
	"champion":           model.RoleChampion,
	"internal champion":  model.RoleChampion,
	"advocate":           model.RoleChampion,
	"sponsor (internal)": model.RoleChampion,

	"economic buyer": model.RoleEconomicBuyer,
	"economic_buyer": model.RoleEconomicBuyer,
	"budget holder":  model.RoleEconomicBuyer,
	"budget owner":   model.RoleEconomicBuyer,
	"buyer":          model.RoleEconomicBuyer,
	"purchaser":      model.RoleEconomicBuyer,

	"decision maker":       model.RoleDecisionMaker,
	"decision_maker":       model.RoleDecisionMaker,
	"final decision maker": model.RoleDecisionMaker,
	"signer":               model.RoleDecisionMaker,
	"signatory":            model.RoleDecisionMaker,

	"technical evaluator": model.RoleTechnicalEvaluator,
	"technical_evaluator": model.RoleTechnicalEvaluator,
	"technical buyer":     model.RoleTechnicalEvaluator,
	"evaluator":           model.RoleTechnicalEvaluator,
	"technical contact":   model.RoleTechnicalEvaluator,

	"influencer":  model.RoleInfluencer,
	"stakeholder": model.RoleInfluencer,

	"coach": model.RoleCoach,
	"guide": model.RoleCoach,

	"blocker":    model.RoleBlocker,
	"detractor":  model.RoleBlocker,
	"gatekeeper": model.RoleBlocker,

	"end user": model.RoleEndUser,
	"end_user": model.RoleEndUser,
	"user":     model.RoleEndUser,

	"executive sponsor": model.RoleExecutiveSponsor,
	"executive_sponsor": model.RoleExecutiveSponsor,
	"exec sponsor":      model.RoleExecutiveSponsor,
	"sponsor":           model.RoleExecutiveSponsor,

	"unknown": model.RoleUnknown,
	"other":   model.RoleUnknown,
	"none":    model.RoleUnknown,
}

// Normalize maps a free-text CRM role label to a canonical role. Canonical
// values pass through; anything unrecognized (including empty input) is
// RoleUnknown.
func Normalize(raw string) model.Role {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return model.RoleUnknown
	}
	if r := model.Role(label); r.IsCanonical() {
		return r
	}
	if r, ok := synonyms[label]; ok {
		return r
	}
	return model.RoleUnknown
}
