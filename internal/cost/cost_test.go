package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/domain"
	"github.com/deptsched/scheduler/internal/session"
	"github.com/deptsched/scheduler/internal/state"
)

// A section in three sessions on one day at slots 1, 5,
// 7 scores (5-1 -> g=4 -> +5) + (7-5 -> g=2 -> +1) = 6.
func TestSectionGapPenaltyScenario(t *testing.T) {
	cat := catalog.New()
	for _, id := range []int{1, 5, 7} {
		cat.TimeSlots[id] = &catalog.TimeSlot{SlotID: id, Day: "Mon"}
	}
	cat.BuildSlotIndex()

	busy := map[int]struct{}{1: {}, 5: {}, 7: {}}
	assert.Equal(t, 6, sectionGapPenalty(cat, busy))
}

func TestSectionGapPenaltyIgnoresAdjacentSlots(t *testing.T) {
	cat := catalog.New()
	cat.TimeSlots[1] = &catalog.TimeSlot{SlotID: 1, Day: "Mon"}
	cat.TimeSlots[2] = &catalog.TimeSlot{SlotID: 2, Day: "Mon"}
	cat.BuildSlotIndex()

	assert.Equal(t, 0, sectionGapPenalty(cat, map[int]struct{}{1: {}, 2: {}}), "g == 1 contributes 0")
}

func TestEvaluateSumsInstructorAndGapPenalties(t *testing.T) {
	cat := catalog.New()
	cat.TimeSlots[1] = &catalog.TimeSlot{SlotID: 1, Day: "Mon"}
	cat.TimeSlots[2] = &catalog.TimeSlot{SlotID: 2, Day: "Mon"}
	cat.Sections["SEC1"] = &catalog.Section{ID: "SEC1"}
	cat.Instructors["I1"] = &catalog.Instructor{ID: "I1", NotPreferredSlots: map[int]struct{}{1: {}}}
	cat.Rooms["R1"] = &catalog.Room{ID: "R1"}
	cat.BuildSlotIndex()

	sec := cat.Sections["SEC1"]
	sess := &session.Session{
		ID:       "S1",
		Sections: []*catalog.Section{sec},
		Domain: &domain.Domain{
			SlotSequences: [][]int{{1, 2}},
			Rooms:         []*catalog.Room{cat.Rooms["R1"]},
			Instructors:   []*catalog.Instructor{cat.Instructors["I1"]},
		},
	}
	a := assignment.Assignment{Session: sess, Seq: []int{1, 2}, Room: cat.Rooms["R1"], Instructor: cat.Instructors["I1"]}

	st := state.New(cat)
	st.Add(a)

	b := Evaluate(cat, []assignment.Assignment{a}, st)
	require.Equal(t, notPreferredSlotPenalty, b.InstructorPenalty)
	assert.Equal(t, 0, b.GapPenalty, "a single two-slot assignment has no gap to measure")
	assert.Equal(t, b.InstructorPenalty+b.GapPenalty, b.Total)
}
