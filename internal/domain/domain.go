// Package domain pre-computes, for a single session, the three axes of
// feasible candidate values: slot sequences, rooms, and instructors.
package domain

import (
	"sort"

	"github.com/deptsched/scheduler/internal/catalog"
)

// Domain is the precomputed set of feasible candidate values for one
// session.
type Domain struct {
	SlotSequences [][]int
	Rooms         []*catalog.Room
	Instructors   []*catalog.Instructor
}

// Empty reports whether any one of the three axes has no candidates,
// which makes the owning session's problem unsolvable.
func (d *Domain) Empty() bool {
	return len(d.SlotSequences) == 0 || len(d.Rooms) == 0 || len(d.Instructors) == 0
}

// Request describes the axes of a single session that domain
// computation needs. It is a plain struct, rather than the session
// package's *session.Session, so that this package never imports
// session (session embeds *Domain, so the reverse import would cycle).
type Request struct {
	CourseID          string
	LabSpaceKind      string
	Kind              catalog.SessionKind
	DurationSlots     int
	TotalStudentCount int
	IsSmallGroup      bool
}

// Build computes the domain for one session request against a catalog.
func Build(req Request, cat *catalog.Catalog) *Domain {
	return &Domain{
		SlotSequences: slotSequences(cat, req.DurationSlots),
		Rooms:         rooms(cat, req),
		Instructors:   instructors(cat, req.CourseID),
	}
}

// slotSequences enumerates every length-duration window of slot ids
// that lies entirely within one day and is strictly consecutive,
// walking each day in ascending slot order.
func slotSequences(cat *catalog.Catalog, duration int) [][]int {
	if duration <= 0 {
		return nil
	}

	var days []string
	for day := range cat.SlotsByDay {
		days = append(days, day)
	}
	// deterministic day order keeps Domain construction reproducible
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j-1] > days[j]; j-- {
			days[j-1], days[j] = days[j], days[j-1]
		}
	}

	var out [][]int
	for _, day := range days {
		slots := cat.SlotsByDay[day]
		for start := 0; start+duration <= len(slots); start++ {
			consecutive := true
			for i := 1; i < duration; i++ {
				if slots[start+i] != slots[start+i-1]+1 {
					consecutive = false
					break
				}
			}
			if !consecutive {
				continue
			}
			seq := make([]int, duration)
			copy(seq, slots[start:start+duration])
			out = append(out, seq)
		}
	}
	return out
}

// rooms filters the catalog's rooms by capacity and space-kind rules
// that depend on session kind and small-group status, returning them
// in ascending ID order so value ordering downstream stays
// reproducible regardless of map iteration order.
func rooms(cat *catalog.Catalog, req Request) []*catalog.Room {
	var out []*catalog.Room
	for _, room := range cat.Rooms {
		if room.Capacity < req.TotalStudentCount {
			continue
		}
		switch req.Kind {
		case catalog.KindLab:
			if room.SpaceKind != req.LabSpaceKind {
				continue
			}
		case catalog.KindLecture:
			if room.SpaceKind == catalog.SpaceKindComputer || room.SpaceKind == catalog.SpaceKindDrawingStudio {
				continue
			}
			if !req.IsSmallGroup && room.RoomType != catalog.RoomTypeLecture {
				continue
			}
		}
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// instructors returns every instructor qualified to teach courseID, in
// ascending ID order (see rooms).
func instructors(cat *catalog.Catalog, courseID string) []*catalog.Instructor {
	var out []*catalog.Instructor
	for _, inst := range cat.Instructors {
		if inst.Qualified(courseID) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
