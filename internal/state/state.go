// Package state maintains the three occupancy indices that the
// Phase-1 solver and Phase-2 optimizer consistency-check against:
// per-instructor, per-room, and per-section busy slot sets.
package state

import (
	"github.com/pkg/errors"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/session"
)

// ErrStateCorruption is the cause of the panic IsConsistent raises when
// the tracker is asked about a resource id it was never told about — a
// programming error, not a benign miss.
var ErrStateCorruption = errors.New("StateCorruption")

// State holds three mappings, each resource id to the set of slot ids
// it currently occupies. It owns no entity, only ids, which is what
// severs the Assignment -> Session -> Domain -> Room/Instructor cycle
// that would otherwise reach back into the indices.
type State struct {
	instructorBusy map[string]map[int]struct{}
	roomBusy       map[string]map[int]struct{}
	sectionBusy    map[string]map[int]struct{}
}

// New builds a State with every known instructor, room, and section
// pre-registered with an empty busy set, so later lookups never hit a
// genuinely missing key for a valid id.
func New(cat *catalog.Catalog) *State {
	s := &State{
		instructorBusy: make(map[string]map[int]struct{}, len(cat.Instructors)),
		roomBusy:       make(map[string]map[int]struct{}, len(cat.Rooms)),
		sectionBusy:    make(map[string]map[int]struct{}, len(cat.Sections)),
	}
	for id := range cat.Instructors {
		s.instructorBusy[id] = make(map[int]struct{})
	}
	for id := range cat.Rooms {
		s.roomBusy[id] = make(map[int]struct{})
	}
	for id := range cat.Sections {
		s.sectionBusy[id] = make(map[int]struct{})
	}
	return s
}

// IsConsistent reports whether placing sess at seq/room/inst would
// conflict with anything already in the state. Missing keys are a
// programming error, surfaced by panicking with ErrStateCorruption
// rather than returning a benign false.
func (s *State) IsConsistent(sess *session.Session, seq []int, room *catalog.Room, inst *catalog.Instructor) bool {
	instSlots, ok := s.instructorBusy[inst.ID]
	if !ok {
		panic(errors.Wrapf(ErrStateCorruption, "unknown instructor id %q", inst.ID))
	}
	roomSlots, ok := s.roomBusy[room.ID]
	if !ok {
		panic(errors.Wrapf(ErrStateCorruption, "unknown room id %q", room.ID))
	}

	for _, slot := range seq {
		if _, busy := instSlots[slot]; busy {
			return false
		}
		if _, busy := roomSlots[slot]; busy {
			return false
		}
	}

	for _, sec := range sess.Sections {
		secSlots, ok := s.sectionBusy[sec.ID]
		if !ok {
			panic(errors.Wrapf(ErrStateCorruption, "unknown section id %q", sec.ID))
		}
		for _, slot := range seq {
			if _, busy := secSlots[slot]; busy {
				return false
			}
		}
	}

	return true
}

// Add records a (previously is_consistent) assignment into all three
// indices. The precondition is not re-checked.
func (s *State) Add(a assignment.Assignment) {
	for _, slot := range a.Seq {
		s.instructorBusy[a.Instructor.ID][slot] = struct{}{}
		s.roomBusy[a.Room.ID][slot] = struct{}{}
		for _, sec := range a.Session.Sections {
			s.sectionBusy[sec.ID][slot] = struct{}{}
		}
	}
}

// Remove deletes a previously-added assignment from all three indices,
// restoring the state to exactly what it was before Add.
func (s *State) Remove(a assignment.Assignment) {
	for _, slot := range a.Seq {
		delete(s.instructorBusy[a.Instructor.ID], slot)
		delete(s.roomBusy[a.Room.ID], slot)
		for _, sec := range a.Session.Sections {
			delete(s.sectionBusy[sec.ID], slot)
		}
	}
}

// SectionBusy returns the set of slot ids occupied for a section, for
// the cost evaluator's gap-penalty pass. The returned map must
// not be mutated by the caller.
func (s *State) SectionBusy(sectionID string) map[int]struct{} {
	return s.sectionBusy[sectionID]
}
