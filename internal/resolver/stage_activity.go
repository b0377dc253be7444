package resolver

import (
	"context"

	"github.com/sells-group/roles-cli/internal/model"
)

// activityMix summarizes a contact's interaction footprint on one deal.
type activityMix struct {
	meetings   int
	emails     int
	calls      int
	total      int
	activeDays int
}

// classify maps the mixture onto a role, first match wins. Returns false
// when the footprint fits no pattern.
func (m activityMix) classify() (Candidate, bool) {
	switch {
	case m.meetings >= 3 && m.activeDays >= 5:
		return Candidate{Role: model.RoleChampion, Confidence: 0.40, Evidence: "heavy_meeting_cadence"}, true
	case m.meetings <= 1 && m.emails >= 5:
		return Candidate{Role: model.RoleInfluencer, Confidence: 0.35, Evidence: "email_heavy"}, true
	case m.meetings == 1 && m.total <= 2:
		return Candidate{Role: model.RoleEndUser, Confidence: 0.30, Evidence: "single_meeting"}, true
	case m.meetings >= 1 && m.meetings <= 2 && m.emails <= 4:
		return Candidate{Role: model.RoleDecisionMaker, Confidence: 0.35, Evidence: "sparse_meetings"}, true
	default:
		return Candidate{}, false
	}
}

// stageActivity infers roles from the activity-type mixture over all
// recorded interactions for each (deal, contact) pair. The gate threshold
// equals the computed confidence.
func (e *Engine) stageActivity(ctx context.Context, workspaceID string, deals []model.Deal, c *counters) error {
	return e.eachDeal(ctx, deals, func(ctx context.Context, deal model.Deal) error {
		mixes, err := e.collectActivityMixes(ctx, workspaceID, deal.ID)
		if err != nil {
			return err
		}

		for contactID, mix := range mixes {
			cand, ok := mix.classify()
			if !ok {
				c.skip()
				continue
			}
			cand.Source = model.SourceActivityInference

			if err := e.gate.tryAssign(ctx, workspaceID, deal.ID, contactID, cand, cand.Confidence, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// collectActivityMixes groups a deal's activities by contact.
func (e *Engine) collectActivityMixes(ctx context.Context, workspaceID, dealID string) (map[string]activityMix, error) {
	acts, err := e.store.ListActivities(ctx, workspaceID, dealID)
	if err != nil {
		return nil, err
	}
	if len(acts) == 0 {
		return nil, nil
	}

	days := make(map[string]map[string]bool)
	mixes := make(map[string]activityMix)
	for _, a := range acts {
		mix := mixes[a.ContactID]
		mix.total++
		switch a.Type {
		case model.ActivityMeeting:
			mix.meetings++
		case model.ActivityEmail:
			mix.emails++
		case model.ActivityCall:
			mix.calls++
		}
		if days[a.ContactID] == nil {
			days[a.ContactID] = make(map[string]bool)
		}
		days[a.ContactID][a.OccurredAt.UTC().Format("2006-01-02")] = true
		mix.activeDays = len(days[a.ContactID])
		mixes[a.ContactID] = mix
	}
	return mixes, nil
}
