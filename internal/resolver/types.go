// Package resolver implements the multi-source buying-role resolution
// engine: a fixed-priority chain of resolver stages whose proposals are
// merged under a strict non-downgrade rule, so a low-confidence guess can
// never overwrite a higher-confidence assignment.
package resolver

import (
	"sync/atomic"

	"github.com/sells-group/roles-cli/internal/model"
)

// Candidate is a proposed role assignment from one resolver stage.
type Candidate struct {
	Role       model.Role
	Source     string
	Confidence float64
	Evidence   string
}

// Stage names, in execution order. Later stages gate against rows the
// earlier stages wrote, so the order is fixed.
const (
	StageNormalize      = "normalize_crm_roles"
	StageCRMFields      = "crm_deal_fields"
	StageConversations  = "conversation_participants"
	StageCrossDeal      = "cross_deal_propagation"
	StageTitleInference = "title_enrichment_inference"
	StageActivity       = "activity_inference"
	StageBoost          = "confidence_boost"
	StageDiscovery      = "discovery_sweeps"
)

// Gate thresholds and assigned confidences per stage.
const (
	confCRMField     = 0.90
	confConversation = 0.65
	confCrossDeal    = 0.70
	confActivityDisc = 0.35
	confSeniorityDisc = 0.25

	crossDealMinKnown = 0.50
	boostDelta        = 0.20
)

// counters aggregates stage outcomes. Updated atomically because per-deal
// work within a stage runs on multiple goroutines.
type counters struct {
	candidates atomic.Int64
	written    atomic.Int64
	gated      atomic.Int64
	skipped    atomic.Int64
}

// skip records evidence that was examined but never reached the gate.
// Counting it as a candidate too keeps candidates equal to
// written + gated + skipped in every stage report.
func (c *counters) skip() {
	c.candidates.Add(1)
	c.skipped.Add(1)
}

func (c *counters) report(name string, durationMS int64) model.StageReport {
	return model.StageReport{
		Name:       name,
		Candidates: int(c.candidates.Load()),
		Written:    int(c.written.Load()),
		Gated:      int(c.gated.Load()),
		Skipped:    int(c.skipped.Load()),
		DurationMS: durationMS,
	}
}
