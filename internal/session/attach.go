package session

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/domain"
)

// ErrUnsolvableDomain is returned by AttachDomains when one or more
// sessions has an empty domain on some axis. The problem is
// declared unsolvable before Phase 1 ever starts.
var ErrUnsolvableDomain = errors.New("UnsolvableDomain")

// AttachDomains computes and attaches a Domain to every session.
// If any session ends up with an empty domain on any axis, it returns
// ErrUnsolvableDomain wrapped with the offending session ids; no
// session is left half-attached on failure, but Phase 1 must not run.
func AttachDomains(cat *catalog.Catalog, sessions []*Session) error {
	var flagged []string

	for _, s := range sessions {
		req := domain.Request{
			CourseID:          s.Course.ID,
			LabSpaceKind:      s.Course.LabSpaceKind,
			Kind:              s.Kind,
			DurationSlots:     s.DurationSlots,
			TotalStudentCount: s.TotalStudentCount,
			IsSmallGroup:      s.IsSmallGroup,
		}
		s.Domain = domain.Build(req, cat)
		if s.Domain.Empty() {
			flagged = append(flagged, s.ID)
		}
	}

	if len(flagged) > 0 {
		return errors.Wrapf(ErrUnsolvableDomain, "sessions with an empty domain: %s", strings.Join(flagged, ", "))
	}
	return nil
}

// DomainSizeProxy returns the static most-constrained-first ordering
// proxy used by the Phase-1 variable ordering: the product of the
// three domain axis sizes.
func DomainSizeProxy(s *Session) int {
	if s.Domain == nil {
		return 0
	}
	return len(s.Domain.SlotSequences) * len(s.Domain.Rooms) * len(s.Domain.Instructors)
}

func (s *Session) String() string {
	return fmt.Sprintf("Session(%s, %s %s, %d slots, %d students)",
		s.ID, s.Kind, s.Course.ID, s.DurationSlots, s.TotalStudentCount)
}
