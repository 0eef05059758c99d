package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptsched/scheduler/internal/catalog"
)

func buildCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.TimeSlots[1] = &catalog.TimeSlot{SlotID: 1, Day: "Mon"}
	cat.TimeSlots[2] = &catalog.TimeSlot{SlotID: 2, Day: "Mon"}
	cat.TimeSlots[3] = &catalog.TimeSlot{SlotID: 3, Day: "Mon"}
	cat.TimeSlots[4] = &catalog.TimeSlot{SlotID: 4, Day: "Mon"}
	cat.BuildSlotIndex()

	cat.Rooms["LEC1"] = &catalog.Room{ID: "LEC1", Capacity: 40, RoomType: catalog.RoomTypeLecture}
	cat.Rooms["LAB1"] = &catalog.Room{ID: "LAB1", Capacity: 40, RoomType: catalog.RoomTypeLab, SpaceKind: catalog.SpaceKindComputer}
	cat.Rooms["SMALL"] = &catalog.Room{ID: "SMALL", Capacity: 5, RoomType: catalog.RoomTypeLecture}

	cat.Instructors["I1"] = &catalog.Instructor{ID: "I1", QualifiedCourses: map[string]struct{}{"C1": {}}}
	return cat
}

// duration_slots == k on a day with fewer than k slots yields no
// sequence from that day.
func TestSlotSequencesExcludesShortDays(t *testing.T) {
	cat := catalog.New()
	cat.TimeSlots[1] = &catalog.TimeSlot{SlotID: 1, Day: "Mon"}
	cat.BuildSlotIndex()

	seqs := slotSequences(cat, 2)
	assert.Empty(t, seqs)
}

func TestSlotSequencesEnumeratesConsecutiveWindows(t *testing.T) {
	cat := buildCatalog()
	seqs := slotSequences(cat, 2)
	require.Len(t, seqs, 3)
	assert.Equal(t, []int{1, 2}, seqs[0])
	assert.Equal(t, []int{2, 3}, seqs[1])
	assert.Equal(t, []int{3, 4}, seqs[2])
}

// capacity == student count is accepted (strict < rejects, not <=).
func TestRoomsAcceptsExactCapacityMatch(t *testing.T) {
	cat := buildCatalog()
	req := Request{CourseID: "C1", Kind: catalog.KindLecture, TotalStudentCount: 40, IsSmallGroup: false}
	rooms := rooms(cat, req)

	var found bool
	for _, r := range rooms {
		if r.ID == "LEC1" {
			found = true
		}
	}
	assert.True(t, found, "a room at exactly the required capacity must be included")
}

// is_small_group == false excludes non-Lecture rooms
// even when capacity suffices.
func TestRoomsExcludesNonLectureForLargeGroups(t *testing.T) {
	cat := buildCatalog()
	cat.Rooms["COMPUTER40"] = &catalog.Room{ID: "COMPUTER40", Capacity: 100, RoomType: catalog.RoomTypeLab, SpaceKind: catalog.SpaceKindComputer}

	req := Request{CourseID: "C1", Kind: catalog.KindLecture, TotalStudentCount: 40, IsSmallGroup: false}
	rooms := rooms(cat, req)

	for _, r := range rooms {
		assert.NotEqual(t, "COMPUTER40", r.ID)
	}
}

func TestRoomsLabRequiresMatchingSpaceKind(t *testing.T) {
	cat := buildCatalog()
	req := Request{CourseID: "C1", Kind: catalog.KindLab, LabSpaceKind: catalog.SpaceKindComputer, TotalStudentCount: 10}
	rooms := rooms(cat, req)
	require.Len(t, rooms, 1)
	assert.Equal(t, "LAB1", rooms[0].ID)
}

func TestEmptyReportsAnyEmptyAxis(t *testing.T) {
	d := &Domain{SlotSequences: [][]int{{1}}, Rooms: nil, Instructors: []*catalog.Instructor{{ID: "I1"}}}
	assert.True(t, d.Empty())

	d2 := &Domain{SlotSequences: [][]int{{1}}, Rooms: []*catalog.Room{{ID: "R1"}}, Instructors: []*catalog.Instructor{{ID: "I1"}}}
	assert.False(t, d2.Empty())
}

func TestBuildComposesAllThreeAxes(t *testing.T) {
	cat := buildCatalog()
	req := Request{CourseID: "C1", Kind: catalog.KindLecture, DurationSlots: 2, TotalStudentCount: 30, IsSmallGroup: false}
	d := Build(req, cat)
	assert.NotEmpty(t, d.SlotSequences)
	assert.NotEmpty(t, d.Rooms)
	assert.NotEmpty(t, d.Instructors)
	assert.False(t, d.Empty())
}
