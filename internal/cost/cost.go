// Package cost computes the soft-constraint penalty of a full solution.
// It is pure over its inputs: it never mutates the assignment list or
// the state tracker it is handed.
package cost

import (
	"sort"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/state"
)

const (
	notPreferredSlotPenalty = 10
	noPreferredMatchPenalty = 5

	gapPenaltyTwo       = 1
	gapPenaltyThree     = 3
	gapPenaltyMoreThree = 5
)

// Breakdown is the itemized cost of a solution, surfaced to the export
// writers and the query API's /api/v1/cost endpoint.
type Breakdown struct {
	InstructorPenalty int
	GapPenalty        int
	Total             int
}

// Evaluate computes the total soft-constraint cost of assignments L
// against catalog cat and state s. cat supplies the slot-to-day lookup
// the gap-penalty pass needs; s supplies each section's busy slots.
func Evaluate(cat *catalog.Catalog, l []assignment.Assignment, s *state.State) Breakdown {
	b := Breakdown{}
	b.InstructorPenalty = instructorPenalty(l)
	b.GapPenalty = gapPenalty(cat, l, s)
	b.Total = b.InstructorPenalty + b.GapPenalty
	return b
}

// instructorPenalty sums the per-assignment instructor-preference
// penalties.
func instructorPenalty(l []assignment.Assignment) int {
	total := 0
	for _, a := range l {
		for _, slot := range a.Seq {
			if a.Instructor.NotPreferred(slot) {
				total += notPreferredSlotPenalty
			}
		}
		if len(a.Session.PreferredInstructors) > 0 {
			if _, ok := a.Session.PreferredInstructors[a.Instructor.ID]; !ok {
				total += noPreferredMatchPenalty
			}
		}
	}
	return total
}

// gapPenalty sums the per-section, per-day gap penalties.
// Sections are discovered from the assignment list rather than the
// catalog, so a partial solution is scored over only the sections it
// actually touches.
func gapPenalty(cat *catalog.Catalog, l []assignment.Assignment, s *state.State) int {
	seen := make(map[string]struct{})
	total := 0
	for _, a := range l {
		for _, sec := range a.Session.Sections {
			if _, ok := seen[sec.ID]; ok {
				continue
			}
			seen[sec.ID] = struct{}{}
			total += sectionGapPenalty(cat, s.SectionBusy(sec.ID))
		}
	}
	return total
}

func sectionGapPenalty(cat *catalog.Catalog, busy map[int]struct{}) int {
	if len(busy) == 0 {
		return 0
	}

	byDay := make(map[string][]int)
	for slot := range busy {
		t, ok := cat.TimeSlots[slot]
		if !ok {
			continue
		}
		byDay[t.Day] = append(byDay[t.Day], slot)
	}

	total := 0
	for _, slots := range byDay {
		sort.Ints(slots)
		for i := 0; i+1 < len(slots); i++ {
			g := slots[i+1] - slots[i]
			switch {
			case g == 2:
				total += gapPenaltyTwo
			case g == 3:
				total += gapPenaltyThree
			case g > 3:
				total += gapPenaltyMoreThree
			}
		}
	}
	return total
}
