// Package stats computes coverage aggregates over the resolved assignment
// set. The resolver runs it at the end of every pass; the stats command
// runs it standalone.
package stats

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/store"
)

// Config tunes the fully-threaded classification.
type Config struct {
	// MinDistinctRoles is the number of distinct resolved roles a deal
	// needs before it can count as fully threaded.
	MinDistinctRoles int `yaml:"min_distinct_roles" mapstructure:"min_distinct_roles"`
}

// Summary is the computed aggregate set.
type Summary struct {
	RoleDistribution map[model.Role]int `json:"role_distribution" yaml:"role_distribution"`
	SourceBreakdown  map[string]int     `json:"source_breakdown" yaml:"source_breakdown"`
	Coverage         model.CoverageStats `json:"coverage" yaml:"coverage"`
}

// Aggregator computes a Summary from the store.
type Aggregator struct {
	store store.Store
	cfg   Config
}

// NewAggregator creates an Aggregator. A zero MinDistinctRoles defaults
// to three.
func NewAggregator(st store.Store, cfg Config) *Aggregator {
	if cfg.MinDistinctRoles <= 0 {
		cfg.MinDistinctRoles = 3
	}
	return &Aggregator{store: st, cfg: cfg}
}

// Compute walks every in-scope deal and folds its assignments into the
// summary. Per pair only the highest-confidence row counts toward the role
// distribution; the source breakdown counts every row.
func (a *Aggregator) Compute(ctx context.Context, workspaceID string, filter store.DealFilter) (*Summary, error) {
	deals, err := a.store.ListDeals(ctx, workspaceID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "stats: list deals")
	}

	sum := &Summary{
		RoleDistribution: make(map[model.Role]int),
		SourceBreakdown:  make(map[string]int),
	}
	sum.Coverage.TotalDeals = len(deals)

	var totalContacts, totalResolved int
	for _, deal := range deals {
		contacts, err := a.store.ListDealContacts(ctx, workspaceID, deal.ID)
		if err != nil {
			return nil, eris.Wrap(err, "stats: list contacts")
		}
		totalContacts += len(contacts)
		if len(contacts) == 0 {
			sum.Coverage.DealsNoContacts++
		}

		rows, err := a.store.ListAssignments(ctx, workspaceID, store.AssignmentFilter{DealID: deal.ID})
		if err != nil {
			return nil, eris.Wrap(err, "stats: list assignments")
		}

		winners := make(map[string]model.RoleAssignment)
		for _, row := range rows {
			sum.SourceBreakdown[row.Source]++
			if best, ok := winners[row.ContactID]; !ok || row.RoleConfidence > best.RoleConfidence {
				winners[row.ContactID] = row
			}
		}

		dealRoles := make(map[model.Role]bool)
		for _, row := range winners {
			sum.RoleDistribution[row.BuyingRole]++
			if row.BuyingRole != model.RoleUnknown {
				totalResolved++
				dealRoles[row.BuyingRole] = true
			}
		}

		if len(dealRoles) == 0 {
			// Contactless deals count only under DealsNoContacts; this
			// metric is deals that have contacts yet no resolved role.
			if len(contacts) > 0 {
				sum.Coverage.DealsNoResolvedRole++
			}
			continue
		}
		if dealRoles[model.RoleChampion] {
			sum.Coverage.DealsWithChampion++
		}
		if dealRoles[model.RoleEconomicBuyer] {
			sum.Coverage.DealsWithEconomicBuyer++
		}
		if a.fullyThreaded(dealRoles) {
			sum.Coverage.FullyThreadedDeals++
		}
	}

	if len(deals) > 0 {
		sum.Coverage.AvgContactsPerDeal = float64(totalContacts) / float64(len(deals))
		sum.Coverage.AvgResolvedPerDeal = float64(totalResolved) / float64(len(deals))
	}
	return sum, nil
}

// fullyThreaded requires a champion, an economic buyer or decision maker,
// and at least MinDistinctRoles distinct resolved roles overall.
func (a *Aggregator) fullyThreaded(roles map[model.Role]bool) bool {
	if !roles[model.RoleChampion] {
		return false
	}
	if !roles[model.RoleEconomicBuyer] && !roles[model.RoleDecisionMaker] {
		return false
	}
	return len(roles) >= a.cfg.MinDistinctRoles
}
