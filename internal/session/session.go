// Package session builds the CSP variables: lecture cohorts and lab
// sessions derived from offerings and sections.
package session

import (
	"sort"

	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/domain"
)

// Session is one CSP variable: a unit that must be placed on the
// timetable. It is created once by Builder and never mutated again
// once Domain is attached by the domain builder.
type Session struct {
	ID                   string
	Course               *catalog.Course
	Kind                 catalog.SessionKind
	DurationSlots        int
	Sections             []*catalog.Section
	TotalStudentCount    int
	PreferredInstructors map[string]struct{}
	IsSmallGroup         bool

	Domain *domain.Domain
}

// addSection appends a section to the session and folds its student
// count into the running total. Duplicate sections are ignored.
func (s *Session) addSection(sec *catalog.Section) {
	for _, existing := range s.Sections {
		if existing == sec {
			return
		}
	}
	s.Sections = append(s.Sections, sec)
	s.TotalStudentCount += sec.StudentCount
}

// DefaultMaxGroupCapacity is the default lecture-cohort cap in students.
const DefaultMaxGroupCapacity = 75

// Builder derives the session list from a catalog. It owns the
// monotonic session-id counter, threaded explicitly through the
// Builder value rather than kept in a package-level global.
type Builder struct {
	MaxGroupCapacity int

	counter int
}

// NewBuilder returns a Builder with the default cohort cap.
func NewBuilder() *Builder {
	return &Builder{MaxGroupCapacity: DefaultMaxGroupCapacity}
}

func (b *Builder) nextID() string {
	b.counter++
	return idFromCounter(b.counter)
}

func idFromCounter(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "S0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "S" + string(buf)
}

// SkipReason explains why an offering contributed no sessions.
type SkipReason struct {
	Offering catalog.Offering
	Reason   string
}

const (
	ReasonUnknownCourse      = "UnknownCourse"
	ReasonNoMatchingSections = "NoMatchingSections"
)

// Build derives the full session list from the catalog, in the order:
// for each offering, in catalog order, lecture session(s) then lab
// sessions. Skipped offerings are returned alongside (non-fatal).
func (b *Builder) Build(cat *catalog.Catalog) ([]*Session, []SkipReason) {
	if b.MaxGroupCapacity <= 0 {
		b.MaxGroupCapacity = DefaultMaxGroupCapacity
	}

	var sessions []*Session
	var skipped []SkipReason

	for _, offering := range cat.Offerings {
		course, ok := cat.Courses[offering.CourseID]
		if !ok {
			skipped = append(skipped, SkipReason{Offering: offering, Reason: ReasonUnknownCourse})
			continue
		}

		matched := matchingSections(cat, offering)
		if len(matched) == 0 {
			skipped = append(skipped, SkipReason{Offering: offering, Reason: ReasonNoMatchingSections})
			continue
		}

		if course.LectureDuration > 0 {
			sessions = append(sessions, b.buildLectureCohorts(course, offering, matched)...)
		}
		if course.LabDuration > 0 {
			sessions = append(sessions, b.buildLabSessions(course, offering, matched)...)
		}
	}

	return sessions, skipped
}

func matchingSections(cat *catalog.Catalog, offering catalog.Offering) []*catalog.Section {
	var out []*catalog.Section
	for _, sec := range cat.Sections {
		if offering.Matches(sec) {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// buildLectureCohorts walks the sorted section list, greedily closing
// the current cohort and opening a new one whenever the next section
// would push the cohort over MaxGroupCapacity.
func (b *Builder) buildLectureCohorts(course *catalog.Course, offering catalog.Offering, sections []*catalog.Section) []*Session {
	var out []*Session
	var current *Session

	for _, sec := range sections {
		if current == nil || current.TotalStudentCount+sec.StudentCount > b.MaxGroupCapacity {
			current = b.newSession(course, catalog.KindLecture, course.LectureDuration)
			if offering.PreferredProfessor != "" {
				current.PreferredInstructors[offering.PreferredProfessor] = struct{}{}
			}
			out = append(out, current)
		}
		current.addSection(sec)
	}

	for _, s := range out {
		s.IsSmallGroup = s.TotalStudentCount < b.MaxGroupCapacity
	}
	return out
}

// buildLabSessions emits one (never-grouped) lab session per section.
func (b *Builder) buildLabSessions(course *catalog.Course, offering catalog.Offering, sections []*catalog.Section) []*Session {
	var out []*Session
	for _, sec := range sections {
		s := b.newSession(course, catalog.KindLab, course.LabDuration)
		for _, assistant := range offering.PreferredAssistants {
			s.PreferredInstructors[assistant] = struct{}{}
		}
		s.addSection(sec)
		s.IsSmallGroup = s.TotalStudentCount < b.MaxGroupCapacity
		out = append(out, s)
	}
	return out
}

func (b *Builder) newSession(course *catalog.Course, kind catalog.SessionKind, duration int) *Session {
	return &Session{
		ID:                   b.nextID(),
		Course:               course,
		Kind:                 kind,
		DurationSlots:        duration,
		PreferredInstructors: make(map[string]struct{}),
	}
}
