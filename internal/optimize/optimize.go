// Package optimize implements the Phase-2 hill-climbing local search:
// repeatedly try a pairwise swap of two assignments' seq/room/
// instructor, accepting only strict cost improvements, for a
// configured iteration budget.
package optimize

import (
	"math/rand"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/cost"
	"github.com/deptsched/scheduler/internal/state"
)

// DefaultIterations is the default Phase-2 iteration budget.
const DefaultIterations = 20000

// DefaultReportInterval is how many iterations elapse between progress
// events, throttling how often progress is logged or broadcast.
const DefaultReportInterval = 500

// Progress describes one reported point during the optimization run,
// consumed by the engine's logger and mirrored onto the websocket
// progress topic while a solve is in flight.
type Progress struct {
	Iteration int
	Cost      int
	Accepted  int
}

// Config configures a single Run call.
type Config struct {
	Iterations     int
	ReportInterval int
	Rand           *rand.Rand
	OnProgress     func(Progress)
}

// DefaultConfig returns the default Phase-2 configuration, with
// rnd as the (caller-supplied, for reproducibility) source of
// randomness.
func DefaultConfig(rnd *rand.Rand) Config {
	return Config{
		Iterations:     DefaultIterations,
		ReportInterval: DefaultReportInterval,
		Rand:           rnd,
	}
}

// Run performs strict-descent hill climbing over l in place (and over
// s in place), returning the final cost breakdown. l and s must
// already represent a feasible Phase-1 solution.
func Run(cat *catalog.Catalog, l []assignment.Assignment, s *state.State, cfg Config) cost.Breakdown {
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	reportEvery := cfg.ReportInterval
	if reportEvery <= 0 {
		reportEvery = DefaultReportInterval
	}

	current := cost.Evaluate(cat, l, s)
	accepted := 0

	for iter := 0; iter < iterations; iter++ {
		if len(l) >= 2 {
			if newCost, ok := tryOneSwap(cat, l, s, current, rnd); ok {
				current = newCost
				accepted++
			}
		}

		if cfg.OnProgress != nil && (iter%reportEvery == 0 || iter == iterations-1) {
			cfg.OnProgress(Progress{Iteration: iter, Cost: current.Total, Accepted: accepted})
		}
	}

	return current
}

// tryOneSwap tries one candidate swap: validate, apply, evaluate,
// and commit or revert. On accept,
// l and s are mutated in place and the new cost breakdown is returned
// with true; on reject, both are left exactly as found and false is
// returned.
func tryOneSwap(cat *catalog.Catalog, l []assignment.Assignment, s *state.State, current cost.Breakdown, rnd *rand.Rand) (cost.Breakdown, bool) {
	i, j := distinctPair(len(l), rnd)
	a1, a2 := l[i], l[j]

	if a1.Session.DurationSlots != a2.Session.DurationSlots {
		return cost.Breakdown{}, false
	}

	cand1 := assignment.Assignment{Session: a1.Session, Seq: a2.Seq, Room: a2.Room, Instructor: a2.Instructor}
	cand2 := assignment.Assignment{Session: a2.Session, Seq: a1.Seq, Room: a1.Room, Instructor: a1.Instructor}

	if !cand1.InDomain() || !cand2.InDomain() {
		return cost.Breakdown{}, false
	}

	s.Remove(a1)
	s.Remove(a2)

	if !s.IsConsistent(cand1.Session, cand1.Seq, cand1.Room, cand1.Instructor) {
		s.Add(a1)
		s.Add(a2)
		return cost.Breakdown{}, false
	}
	s.Add(cand1)

	if !s.IsConsistent(cand2.Session, cand2.Seq, cand2.Room, cand2.Instructor) {
		s.Remove(cand1)
		s.Add(a1)
		s.Add(a2)
		return cost.Breakdown{}, false
	}
	s.Add(cand2)

	trial := make([]assignment.Assignment, len(l))
	copy(trial, l)
	trial[i] = cand1
	trial[j] = cand2

	newCost := cost.Evaluate(cat, trial, s)
	if newCost.Total >= current.Total {
		s.Remove(cand1)
		s.Remove(cand2)
		s.Add(a1)
		s.Add(a2)
		return cost.Breakdown{}, false
	}

	l[i] = cand1
	l[j] = cand2
	return newCost, true
}

// distinctPair picks two distinct indices in [0, n) uniformly at
// random.
func distinctPair(n int, rnd *rand.Rand) (int, int) {
	i := rnd.Intn(n)
	j := rnd.Intn(n - 1)
	if j >= i {
		j++
	}
	return i, j
}
