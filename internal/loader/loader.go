// Package loader reads the six CSV tables into a catalog, tolerant of
// blank lines and "//"-prefixed comment lines, wrapping every error
// with the offending file name and line number.
package loader

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/deptsched/scheduler/internal/catalog"
)

// Filenames are the canonical names looked for in the catalog directory.
const (
	CoursesFile     = "courses.csv"
	RoomsFile       = "rooms.csv"
	InstructorsFile = "instructors.csv"
	TimeSlotsFile   = "timeslots.csv"
	SectionsFile    = "sections.csv"
	OfferingsFile   = "offerings.csv"
)

// ErrDuplicateID is returned when a table defines the same id twice.
var ErrDuplicateID = errors.New("DuplicateID")

// LoadDir reads all six tables from dir, in the canonical filenames,
// and returns a catalog with its slot index already built.
func LoadDir(dir string) (*catalog.Catalog, error) {
	cat := catalog.New()

	if err := loadCourses(filepath.Join(dir, CoursesFile), cat); err != nil {
		return nil, err
	}
	if err := loadRooms(filepath.Join(dir, RoomsFile), cat); err != nil {
		return nil, err
	}
	if err := loadInstructors(filepath.Join(dir, InstructorsFile), cat); err != nil {
		return nil, err
	}
	if err := loadTimeSlots(filepath.Join(dir, TimeSlotsFile), cat); err != nil {
		return nil, err
	}
	if err := loadSections(filepath.Join(dir, SectionsFile), cat); err != nil {
		return nil, err
	}
	if err := loadOfferings(filepath.Join(dir, OfferingsFile), cat); err != nil {
		return nil, err
	}

	cat.BuildSlotIndex()
	return cat, nil
}

// row is one tolerant-parsed CSV line: its fields and its 1-based line
// number in the source file, for error messages.
type row struct {
	fields []string
	line   int
}

// readRows opens filename and yields every non-blank, non-comment line
// as a parsed CSV record, tracking the original line number so errors
// can report as "%q line %d: %v".
func readRows(filename string) ([]row, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", filename)
	}
	defer f.Close()

	var out []row
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		fields, err := csv.NewReader(strings.NewReader(text)).Read()
		if err != nil {
			return nil, errors.Wrapf(err, "%q line %d", filename, line)
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		out = append(out, row{fields: fields, line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "%q", filename)
	}
	return out, nil
}

func wantFields(filename string, r row, n int) error {
	if len(r.fields) != n {
		return errors.Errorf("%q line %d: expected %d fields, found %d", filename, r.line, n, len(r.fields))
	}
	return nil
}

func loadCourses(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 5); err != nil {
			return err
		}
		id := r.fields[0]
		if _, dup := cat.Courses[id]; dup {
			return errors.Wrapf(ErrDuplicateID, "%q line %d: course %q", filename, r.line, id)
		}
		lectureDuration, err := strconv.Atoi(r.fields[2])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: lecture_duration", filename, r.line)
		}
		labDuration, err := strconv.Atoi(r.fields[3])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: lab_duration", filename, r.line)
		}
		cat.Courses[id] = &catalog.Course{
			ID:              id,
			Name:            r.fields[1],
			LectureDuration: lectureDuration,
			LabDuration:     labDuration,
			LabSpaceKind:    r.fields[4],
		}
	}
	return nil
}

func loadRooms(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 4); err != nil {
			return err
		}
		id := r.fields[0]
		if _, dup := cat.Rooms[id]; dup {
			return errors.Wrapf(ErrDuplicateID, "%q line %d: room %q", filename, r.line, id)
		}
		capacity, err := strconv.Atoi(r.fields[1])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: capacity", filename, r.line)
		}
		cat.Rooms[id] = &catalog.Room{
			ID:        id,
			Capacity:  capacity,
			RoomType:  r.fields[2],
			SpaceKind: r.fields[3],
		}
	}
	return nil
}

func loadInstructors(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 4); err != nil {
			return err
		}
		id := r.fields[0]
		if _, dup := cat.Instructors[id]; dup {
			return errors.Wrapf(ErrDuplicateID, "%q line %d: instructor %q", filename, r.line, id)
		}

		qualified := make(map[string]struct{})
		for _, c := range splitSemicolons(r.fields[2]) {
			qualified[c] = struct{}{}
		}

		notPreferred := make(map[int]struct{})
		for _, s := range splitSemicolons(r.fields[3]) {
			slot, err := strconv.Atoi(s)
			if err != nil {
				return errors.Wrapf(err, "%q line %d: not_preferred_slots", filename, r.line)
			}
			notPreferred[slot] = struct{}{}
		}

		cat.Instructors[id] = &catalog.Instructor{
			ID:                id,
			Name:              r.fields[1],
			QualifiedCourses:  qualified,
			NotPreferredSlots: notPreferred,
		}
	}
	return nil
}

func loadTimeSlots(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 4); err != nil {
			return err
		}
		slotID, err := strconv.Atoi(r.fields[0])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: slot_id", filename, r.line)
		}
		if _, dup := cat.TimeSlots[slotID]; dup {
			return errors.Wrapf(ErrDuplicateID, "%q line %d: slot %d", filename, r.line, slotID)
		}
		cat.TimeSlots[slotID] = &catalog.TimeSlot{
			SlotID:    slotID,
			Day:       r.fields[1],
			StartTime: r.fields[2],
			EndTime:   r.fields[3],
		}
	}
	return nil
}

func loadSections(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 5); err != nil {
			return err
		}
		id := r.fields[0]
		if _, dup := cat.Sections[id]; dup {
			return errors.Wrapf(ErrDuplicateID, "%q line %d: section %q", filename, r.line, id)
		}
		level, err := strconv.Atoi(r.fields[2])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: level", filename, r.line)
		}
		studentCount, err := strconv.Atoi(r.fields[4])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: student_count", filename, r.line)
		}
		cat.Sections[id] = &catalog.Section{
			ID:             id,
			Department:     r.fields[1],
			Level:          level,
			Specialization: r.fields[3],
			StudentCount:   studentCount,
		}
	}
	return nil
}

func loadOfferings(filename string, cat *catalog.Catalog) error {
	rows, err := readRows(filename)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := wantFields(filename, r, 6); err != nil {
			return err
		}
		level, err := strconv.Atoi(r.fields[1])
		if err != nil {
			return errors.Wrapf(err, "%q line %d: level", filename, r.line)
		}
		cat.Offerings = append(cat.Offerings, catalog.Offering{
			Department:          r.fields[0],
			Level:               level,
			Specialization:      r.fields[2],
			CourseID:            r.fields[3],
			PreferredProfessor:  r.fields[4],
			PreferredAssistants: splitSemicolons(r.fields[5]),
		})
	}
	log.Debug().Int("count", len(cat.Offerings)).Str("file", filename).Msg("loaded offerings")
	return nil
}

func splitSemicolons(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
