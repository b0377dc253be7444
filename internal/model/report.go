package model

import "time"

// StageReport holds per-stage counters for one resolver run.
type StageReport struct {
	Name       string `json:"name" yaml:"name"`
	Candidates int    `json:"candidates" yaml:"candidates"`
	Written    int    `json:"written" yaml:"written"`
	Gated      int    `json:"gated" yaml:"gated"`
	Skipped    int    `json:"skipped" yaml:"skipped"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
}

// CoverageStats holds deal-level aggregates over the resolved assignment set.
type CoverageStats struct {
	TotalDeals            int     `json:"total_deals" yaml:"total_deals"`
	DealsNoContacts       int     `json:"deals_no_contacts" yaml:"deals_no_contacts"`
	DealsNoResolvedRole   int     `json:"deals_no_resolved_role" yaml:"deals_no_resolved_role"`
	DealsWithChampion     int     `json:"deals_with_champion" yaml:"deals_with_champion"`
	DealsWithEconomicBuyer int    `json:"deals_with_economic_buyer" yaml:"deals_with_economic_buyer"`
	FullyThreadedDeals    int     `json:"fully_threaded_deals" yaml:"fully_threaded_deals"`
	AvgContactsPerDeal    float64 `json:"avg_contacts_per_deal" yaml:"avg_contacts_per_deal"`
	AvgResolvedPerDeal    float64 `json:"avg_resolved_per_deal" yaml:"avg_resolved_per_deal"`
}

// RunReport is the operator-facing output of a resolver run. It is logged
// and rendered, never persisted as a first-class entity.
type RunReport struct {
	WorkspaceID      string         `json:"workspace_id" yaml:"workspace_id"`
	DealID           string         `json:"deal_id,omitempty" yaml:"deal_id,omitempty"`
	Stages           []StageReport  `json:"stages" yaml:"stages"`
	RoleDistribution map[Role]int   `json:"role_distribution" yaml:"role_distribution"`
	SourceBreakdown  map[string]int `json:"source_breakdown" yaml:"source_breakdown"`
	Coverage         CoverageStats  `json:"coverage" yaml:"coverage"`
	StartedAt        time.Time      `json:"started_at" yaml:"started_at"`
	ElapsedMS        int64          `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// TotalWritten sums the written counter across stages.
func (r *RunReport) TotalWritten() int {
	var n int
	for _, s := range r.Stages {
		n += s.Written
	}
	return n
}
