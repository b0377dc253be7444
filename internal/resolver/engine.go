package resolver

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/roles-cli/internal/model"
	"github.com/sells-group/roles-cli/internal/stats"
	"github.com/sells-group/roles-cli/internal/store"
	"github.com/sells-group/roles-cli/internal/taxonomy"
)

// Config tunes engine execution.
type Config struct {
	// Concurrency bounds per-deal parallelism within a stage. Stage
	// boundaries remain synchronization barriers regardless.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	Stats stats.Config `yaml:"stats" mapstructure:"stats"`
}

// Options scopes a single resolver run.
type Options struct {
	// DealID restricts the run to one deal for targeted re-resolution.
	DealID string
	// IncludeClosedDeals widens the deal scope to closed deals.
	IncludeClosedDeals bool
}

// Engine orchestrates the resolver stages in fixed priority order. Each
// stage completes across all in-scope deals before the next begins,
// because later stages gate against rows the earlier stages wrote.
type Engine struct {
	store store.Store
	gate  *gate
	cfg   Config
}

// New creates an Engine on the given store.
func New(st store.Store, cfg Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Engine{store: st, gate: &gate{store: st}, cfg: cfg}
}

// Resolve runs the full priority chain for a workspace, optionally scoped
// to one deal, and returns the run report. Partial progress from completed
// stages is durable; only storage failures abort the run.
func (e *Engine) Resolve(ctx context.Context, workspaceID string, opts Options) (*model.RunReport, error) {
	log := zap.L().With(zap.String("workspace", workspaceID))
	if opts.DealID != "" {
		log = log.With(zap.String("deal", opts.DealID))
	}
	log.Info("resolver: starting run")

	started := time.Now()
	report := &model.RunReport{
		WorkspaceID: workspaceID,
		DealID:      opts.DealID,
		StartedAt:   started.UTC(),
	}

	filter := store.DealFilter{DealID: opts.DealID, IncludeClosed: opts.IncludeClosedDeals}
	deals, err := e.store.ListDeals(ctx, workspaceID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: list deals")
	}

	mappings, err := e.store.FieldRoleMappings(ctx, workspaceID)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: field role mappings")
	}
	overrides := normalizeOverrides(mappings)

	stages := []struct {
		name string
		fn   func(context.Context, string, []model.Deal, *counters) error
	}{
		{StageNormalize, func(ctx context.Context, ws string, _ []model.Deal, c *counters) error {
			return e.stageNormalize(ctx, ws, opts.DealID, c)
		}},
		{StageCRMFields, func(ctx context.Context, ws string, ds []model.Deal, c *counters) error {
			return e.stageCRMFields(ctx, ws, ds, overrides, c)
		}},
		{StageConversations, e.stageConversations},
		{StageCrossDeal, e.stageCrossDeal},
		{StageTitleInference, e.stageTitleInference},
		{StageActivity, e.stageActivity},
		{StageBoost, e.stageBoost},
		{StageDiscovery, e.stageDiscovery},
	}

	for _, stage := range stages {
		var c counters
		stageStart := time.Now()

		if err := stage.fn(ctx, workspaceID, deals, &c); err != nil {
			return nil, eris.Wrapf(err, "resolver: stage %s", stage.name)
		}

		sr := c.report(stage.name, time.Since(stageStart).Milliseconds())
		report.Stages = append(report.Stages, sr)
		log.Info("resolver: stage complete",
			zap.String("stage", sr.Name),
			zap.Int("candidates", sr.Candidates),
			zap.Int("written", sr.Written),
			zap.Int("gated", sr.Gated),
			zap.Int("skipped", sr.Skipped),
			zap.Int64("duration_ms", sr.DurationMS),
		)
	}

	agg := stats.NewAggregator(e.store, e.cfg.Stats)
	summary, err := agg.Compute(ctx, workspaceID, filter)
	if err != nil {
		return nil, eris.Wrap(err, "resolver: compute stats")
	}
	report.RoleDistribution = summary.RoleDistribution
	report.SourceBreakdown = summary.SourceBreakdown
	report.Coverage = summary.Coverage
	report.ElapsedMS = time.Since(started).Milliseconds()

	log.Info("resolver: run complete",
		zap.Int("assignments_written", report.TotalWritten()),
		zap.Int64("elapsed_ms", report.ElapsedMS),
	)
	return report, nil
}

// eachDeal fans per-deal work across a bounded worker group. A deal is
// processed by exactly one worker, which keeps every (deal, contact) pair
// single-writer within a stage.
func (e *Engine) eachDeal(ctx context.Context, deals []model.Deal, fn func(ctx context.Context, deal model.Deal) error) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, deal := range deals {
		g.Go(func() error {
			return fn(gCtx, deal)
		})
	}
	return g.Wait()
}

// normalizeOverrides lower-cases configured field names so lookup matches
// FieldRole's folding.
func normalizeOverrides(mappings map[string]model.Role) map[string]model.Role {
	if len(mappings) == 0 {
		return nil
	}
	out := make(map[string]model.Role, len(mappings))
	for name, role := range mappings {
		if norm := taxonomy.Normalize(string(role)); norm != model.RoleUnknown {
			out[strings.ToLower(strings.TrimSpace(name))] = norm
		}
	}
	return out
}
