package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/domain"
	"github.com/deptsched/scheduler/internal/session"
)

func testCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.Instructors["I1"] = &catalog.Instructor{ID: "I1"}
	cat.Rooms["R1"] = &catalog.Room{ID: "R1"}
	cat.Sections["SEC1"] = &catalog.Section{ID: "SEC1"}
	return cat
}

func testAssignment(cat *catalog.Catalog) assignment.Assignment {
	sec := cat.Sections["SEC1"]
	sess := &session.Session{
		ID:       "S1",
		Sections: []*catalog.Section{sec},
		Domain:   &domain.Domain{SlotSequences: [][]int{{1, 2}}, Rooms: []*catalog.Room{cat.Rooms["R1"]}, Instructors: []*catalog.Instructor{cat.Instructors["I1"]}},
	}
	return assignment.Assignment{Session: sess, Seq: []int{1, 2}, Room: cat.Rooms["R1"], Instructor: cat.Instructors["I1"]}
}

func TestAddThenIsConsistentRejectsOverlap(t *testing.T) {
	cat := testCatalog()
	s := New(cat)
	a := testAssignment(cat)

	assert.True(t, s.IsConsistent(a.Session, a.Seq, a.Room, a.Instructor))
	s.Add(a)
	assert.False(t, s.IsConsistent(a.Session, a.Seq, a.Room, a.Instructor), "the same resource/slot pair cannot be double-booked")
}

// add then remove returns the state to byte-equal contents.
func TestRemoveRestoresConsistency(t *testing.T) {
	cat := testCatalog()
	s := New(cat)
	a := testAssignment(cat)

	s.Add(a)
	s.Remove(a)
	assert.True(t, s.IsConsistent(a.Session, a.Seq, a.Room, a.Instructor))
	assert.Empty(t, s.SectionBusy("SEC1"))
}

func TestIsConsistentPanicsOnUnknownResource(t *testing.T) {
	cat := testCatalog()
	s := New(cat)
	a := testAssignment(cat)
	a.Room = &catalog.Room{ID: "unregistered"}

	assert.Panics(t, func() {
		s.IsConsistent(a.Session, a.Seq, a.Room, a.Instructor)
	})
}

func TestSectionBusyReflectsAddedSlots(t *testing.T) {
	cat := testCatalog()
	s := New(cat)
	a := testAssignment(cat)
	s.Add(a)

	busy := s.SectionBusy("SEC1")
	require.Len(t, busy, 2)
	_, ok1 := busy[1]
	_, ok2 := busy[2]
	assert.True(t, ok1)
	assert.True(t, ok2)
}
