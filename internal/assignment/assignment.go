// Package assignment defines the solution unit every later stage
// consumes: one session bound to a slot sequence, room, and instructor.
package assignment

import (
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/session"
)

// Assignment binds one session to a chosen slot sequence, room, and
// instructor. The final solution is a set of assignments, one per
// session.
type Assignment struct {
	Session    *session.Session
	Seq        []int
	Room       *catalog.Room
	Instructor *catalog.Instructor
}

// Clone returns a shallow copy with its own Seq slice, so that callers
// building a trial assignment (Phase-2 swaps) never alias the original's
// backing array.
func (a Assignment) Clone() Assignment {
	seq := make([]int, len(a.Seq))
	copy(seq, a.Seq)
	return Assignment{Session: a.Session, Seq: seq, Room: a.Room, Instructor: a.Instructor}
}

// InDomain reports whether a's Seq/Room/Instructor are all members of
// a.Session's domain (set membership on all three axes).
func (a Assignment) InDomain() bool {
	if a.Session == nil || a.Session.Domain == nil {
		return false
	}
	d := a.Session.Domain

	found := false
	for _, seq := range d.SlotSequences {
		if sameSeq(seq, a.Seq) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	found = false
	for _, r := range d.Rooms {
		if r == a.Room {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	for _, inst := range d.Instructors {
		if inst == a.Instructor {
			return true
		}
	}
	return false
}

func sameSeq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
