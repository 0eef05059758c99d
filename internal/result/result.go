// Package result defines RunResult, the object produced once by the
// orchestration engine and consumed by both the exporter and the query
// API. It lives in its own package so neither consumer needs to import
// the engine that builds it.
package result

import (
	"time"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/cost"
	"github.com/deptsched/scheduler/internal/state"
)

// RunResult is the final output of one Load->Solve->Optimize pipeline.
type RunResult struct {
	RunID       string
	Assignments []assignment.Assignment
	State       *state.State

	CostBeforeOptimize cost.Breakdown
	CostAfterOptimize  cost.Breakdown

	LoadDuration     time.Duration
	BuildDuration    time.Duration
	SolveDuration    time.Duration
	OptimizeDuration time.Duration
}
