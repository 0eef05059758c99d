// Package solver implements the Phase-1 constraint-satisfaction
// backtracking search: find any assignment of every session to a
// (slot sequence, room, instructor) triple that satisfies all hard
// constraints.
package solver

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/session"
	"github.com/deptsched/scheduler/internal/state"
)

// Errors surfaced by Solve.
var (
	ErrUnsatisfiable = errors.New("Unsatisfiable")
	ErrCancelled     = errors.New("Cancelled")
)

// Heuristic selects the Phase-1 variable ordering strategy.
type Heuristic string

const (
	StaticMRV  Heuristic = "static_mrv"
	DynamicMRV Heuristic = "dynamic_mrv"
)

// Weights are the value-ordering penalty coefficients.
// DefaultWeights matches the default (10, 5, -20) triple.
type Weights struct {
	NotPreferredSlot    int
	NoPreferredMatch    int
	PreferredInstructor int
}

var DefaultWeights = Weights{
	NotPreferredSlot:    10,
	NoPreferredMatch:    5,
	PreferredInstructor: -20,
}

// Config configures a single Solve call.
type Config struct {
	Heuristic Heuristic
	Weights   Weights
	Logger    *zerolog.Logger
}

// DefaultConfig returns the default Phase-1 configuration.
func DefaultConfig() Config {
	return Config{Heuristic: StaticMRV, Weights: DefaultWeights}
}

func (c Config) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// candidate is one (seq, room, instructor) triple under consideration
// for a session, tagged with its value-ordering penalty.
type candidate struct {
	seq        []int
	room       *catalog.Room
	instructor *catalog.Instructor
	penalty    int
}

// frame is one depth of the explicit backtracking stack: the ordered
// candidate list for the session at this depth, and how far into it
// the search has progressed.
type frame struct {
	computed   bool
	candidates []candidate
	cursor     int
}

// Solve runs the Phase-1 backtracking search over sessions, whose
// domains must already be attached (session.AttachDomains). It uses an
// explicit stack rather than native recursion, so that session
// count (typically hundreds) never threatens Go's goroutine stack.
//
// ctx is checked for cancellation between backtracking frames only,
// never mid-frame, so a cancelled search always leaves the state
// tracker internally consistent.
func Solve(ctx context.Context, cat *catalog.Catalog, sessions []*session.Session, cfg Config) ([]assignment.Assignment, *state.State, error) {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if cfg.Heuristic == "" {
		cfg.Heuristic = StaticMRV
	}
	if cfg.Heuristic == DynamicMRV {
		cfg.logger().Info().Msg("dynamic_mrv requested but not implemented, falling back to static_mrv")
		cfg.Heuristic = StaticMRV
	}

	order := staticOrder(sessions)
	st := state.New(cat)
	frames := make([]frame, len(order))
	placed := make([]assignment.Assignment, len(order))

	i := 0
	for i < len(order) {
		select {
		case <-ctx.Done():
			return nil, nil, errors.Wrap(ErrCancelled, ctx.Err().Error())
		default:
		}

		f := &frames[i]
		if !f.computed {
			f.candidates = valueOrder(order[i], cfg.Weights)
			f.computed = true
		}

		advanced := false
		for ; f.cursor < len(f.candidates); f.cursor++ {
			c := f.candidates[f.cursor]
			if !st.IsConsistent(order[i], c.seq, c.room, c.instructor) {
				continue
			}
			a := assignment.Assignment{Session: order[i], Seq: c.seq, Room: c.room, Instructor: c.instructor}
			st.Add(a)
			placed[i] = a
			f.cursor++
			i++
			advanced = true
			break
		}

		if advanced {
			continue
		}

		// exhausted every candidate at this depth: backtrack
		if i == 0 {
			return nil, nil, ErrUnsatisfiable
		}
		// rewind this depth so it is retried from its first candidate
		// once a shallower session takes a different value
		f.cursor = 0
		i--
		st.Remove(placed[i])
	}

	out := make([]assignment.Assignment, len(placed))
	copy(out, placed)
	return out, st, nil
}

// staticOrder sorts sessions ascending by the most-constrained-first
// domain-size proxy, once, before the search begins.
func staticOrder(sessions []*session.Session) []*session.Session {
	order := make([]*session.Session, len(sessions))
	copy(order, sessions)
	sort.SliceStable(order, func(i, j int) bool {
		return session.DomainSizeProxy(order[i]) < session.DomainSizeProxy(order[j])
	})
	return order
}

// valueOrder enumerates every (seq, room, instructor) triple in the
// session's domain and sorts them ascending by penalty, a stable sort
// so ties break by enumeration order.
func valueOrder(s *session.Session, w Weights) []candidate {
	d := s.Domain
	out := make([]candidate, 0, len(d.SlotSequences)*len(d.Rooms)*len(d.Instructors))

	for _, seq := range d.SlotSequences {
		for _, room := range d.Rooms {
			for _, inst := range d.Instructors {
				out = append(out, candidate{
					seq:        seq,
					room:       room,
					instructor: inst,
					penalty:    valuePenalty(s, seq, inst, w),
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].penalty < out[j].penalty })
	return out
}

func valuePenalty(s *session.Session, seq []int, inst *catalog.Instructor, w Weights) int {
	penalty := 0
	for _, slot := range seq {
		if inst.NotPreferred(slot) {
			penalty += w.NotPreferredSlot
		}
	}

	_, preferred := s.PreferredInstructors[inst.ID]
	switch {
	case preferred:
		penalty += w.PreferredInstructor
	case len(s.PreferredInstructors) > 0:
		penalty += w.NoPreferredMatch
	}

	return penalty
}
