// Package engine wires the whole pipeline together, single-threaded,
// per run: Load -> BuildSessions -> BuildDomains -> Solve ->
// Evaluate+Optimize -> the RunResult consumed by export/api.
//
// A concurrent multi-restart search (worker pool, pinning, generations)
// is deliberately not used here: a single run never overlaps another
// solve. What survives is throttled progress logging and a "keep the
// best schedule found" reflex, reduced to one write at the end of a
// single run.
package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/config"
	"github.com/deptsched/scheduler/internal/cost"
	"github.com/deptsched/scheduler/internal/loader"
	"github.com/deptsched/scheduler/internal/optimize"
	"github.com/deptsched/scheduler/internal/result"
	"github.com/deptsched/scheduler/internal/session"
	"github.com/deptsched/scheduler/internal/solver"
)

// Options configures a single Run. A nil Logger falls back to
// zerolog's global logger; a nil OnProgress drops progress events.
type Options struct {
	CatalogDir string
	Config     *config.Config
	Logger     *zerolog.Logger
	OnProgress func(optimize.Progress)
}

// Run executes the full pipeline once and returns the catalog it loaded
// alongside the final RunResult, so callers that need both (export,
// the serve command's API store) never have to re-parse the same CSVs.
func Run(ctx context.Context, opts Options) (*catalog.Catalog, *result.RunResult, error) {
	logger := &log.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	rr := &result.RunResult{RunID: uuid.New().String()}
	runLogger := logger.With().Str("run_id", rr.RunID).Logger()
	logger = &runLogger

	loadStart := time.Now()
	cat, err := loader.LoadDir(opts.CatalogDir)
	if err != nil {
		return nil, nil, err
	}
	rr.LoadDuration = time.Since(loadStart)
	logger.Info().Dur("elapsed", rr.LoadDuration).Msg("catalog loaded")

	buildStart := time.Now()
	sessions, skipped := buildSessions(cat, cfg)
	for _, s := range skipped {
		logger.Warn().Str("reason", s.Reason).Str("course", s.Offering.CourseID).Msg("offering skipped")
	}
	if err := session.AttachDomains(cat, sessions); err != nil {
		return nil, nil, err
	}
	rr.BuildDuration = time.Since(buildStart)
	logger.Info().Dur("elapsed", rr.BuildDuration).Int("sessions", len(sessions)).Msg("sessions and domains built")

	solveStart := time.Now()
	solveCfg := solver.Config{
		Heuristic: solver.Heuristic(cfg.VariableOrderHeuristic),
		Weights: solver.Weights{
			NotPreferredSlot:    cfg.ValuePenaltyWeights.NotPreferredSlot,
			NoPreferredMatch:    cfg.ValuePenaltyWeights.NoPreferredMatch,
			PreferredInstructor: cfg.ValuePenaltyWeights.PreferredInstructor,
		},
		Logger: logger,
	}
	assignments, st, err := solver.Solve(ctx, cat, sessions, solveCfg)
	if err != nil {
		return nil, nil, err
	}
	rr.SolveDuration = time.Since(solveStart)
	logger.Info().Dur("elapsed", rr.SolveDuration).Msg("phase 1 solved")

	rr.Assignments = assignments
	rr.State = st
	rr.CostBeforeOptimize = cost.Evaluate(cat, assignments, st)

	optimizeStart := time.Now()
	reportInterval := cfg.ProgressReportInterval
	rnd := rand.New(rand.NewSource(cfg.RNGSeed))
	optCfg := optimize.Config{
		Iterations:     cfg.Phase2Iterations,
		ReportInterval: reportInterval,
		Rand:           rnd,
		OnProgress: func(p optimize.Progress) {
			logger.Info().Int("iteration", p.Iteration).Int("cost", p.Cost).Int("accepted", p.Accepted).Msg("phase 2 progress")
			if opts.OnProgress != nil {
				opts.OnProgress(p)
			}
		},
	}
	rr.CostAfterOptimize = optimize.Run(cat, rr.Assignments, st, optCfg)
	rr.OptimizeDuration = time.Since(optimizeStart)
	logger.Info().Dur("elapsed", rr.OptimizeDuration).Int("cost", rr.CostAfterOptimize.Total).Msg("phase 2 optimized")

	return cat, rr, nil
}

func buildSessions(cat *catalog.Catalog, cfg *config.Config) ([]*session.Session, []session.SkipReason) {
	b := session.NewBuilder()
	if cfg.MaxGroupCapacity > 0 {
		b.MaxGroupCapacity = cfg.MaxGroupCapacity
	}
	return b.Build(cat)
}
