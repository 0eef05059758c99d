package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/domain"
	"github.com/deptsched/scheduler/internal/session"
)

func TestCloneDoesNotAliasSeq(t *testing.T) {
	a := Assignment{Seq: []int{1, 2, 3}}
	b := a.Clone()
	b.Seq[0] = 99
	assert.Equal(t, 1, a.Seq[0], "Clone must copy the backing array")
}

func TestInDomainChecksAllThreeAxes(t *testing.T) {
	room := &catalog.Room{ID: "R1"}
	inst := &catalog.Instructor{ID: "I1"}
	sess := &session.Session{
		Domain: &domain.Domain{
			SlotSequences: [][]int{{1, 2}},
			Rooms:         []*catalog.Room{room},
			Instructors:   []*catalog.Instructor{inst},
		},
	}

	in := Assignment{Session: sess, Seq: []int{1, 2}, Room: room, Instructor: inst}
	assert.True(t, in.InDomain())

	wrongRoom := Assignment{Session: sess, Seq: []int{1, 2}, Room: &catalog.Room{ID: "other"}, Instructor: inst}
	assert.False(t, wrongRoom.InDomain())

	wrongSeq := Assignment{Session: sess, Seq: []int{2, 3}, Room: room, Instructor: inst}
	assert.False(t, wrongSeq.InDomain())
}

func TestInDomainFalseWithoutDomain(t *testing.T) {
	a := Assignment{Session: &session.Session{}}
	assert.False(t, a.InDomain())
}
