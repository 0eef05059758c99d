package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/cost"
	"github.com/deptsched/scheduler/internal/result"
	"github.com/deptsched/scheduler/internal/session"
)

func testFixture() (*catalog.Catalog, []assignment.Assignment) {
	cat := catalog.New()
	cat.TimeSlots[1] = &catalog.TimeSlot{SlotID: 1, Day: "Mon"}
	cat.TimeSlots[2] = &catalog.TimeSlot{SlotID: 2, Day: "Mon"}
	cat.Rooms["R1"] = &catalog.Room{ID: "R1"}
	cat.Instructors["I1"] = &catalog.Instructor{ID: "I1", Name: "Ada Lovelace"}

	sess := &session.Session{ID: "S2", Course: &catalog.Course{ID: "C1", Name: "Intro to CS"}}
	a := assignment.Assignment{Session: sess, Seq: []int{1, 2}, Room: cat.Rooms["R1"], Instructor: cat.Instructors["I1"]}
	return cat, []assignment.Assignment{a}
}

func TestWriteCSVProducesExpectedHeaderAndRow(t *testing.T) {
	cat, assignments := testFixture()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, cat, assignments))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"session_id", "course_id", "day", "slot_ids", "room_id", "instructor_id"}, records[0])
	assert.Equal(t, []string{"S2", "C1", "Mon", "1;2", "R1", "I1"}, records[1])
}

func TestWriteJSONRoundTrips(t *testing.T) {
	cat, assignments := testFixture()
	rr := &result.RunResult{
		Assignments:        assignments,
		CostBeforeOptimize: cost.Breakdown{Total: 10},
		CostAfterOptimize:  cost.Breakdown{Total: 5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, cat, rr))

	var doc jsonRunResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Assignments, 1)
	assert.Equal(t, "S2", doc.Assignments[0].SessionID)
	assert.Equal(t, 10, doc.CostBefore.Total)
	assert.Equal(t, 5, doc.CostAfter.Total)
}

func TestWritePDFProducesNonEmptyOutput(t *testing.T) {
	cat, assignments := testFixture()
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, cat, assignments))
	assert.NotEmpty(t, buf.Bytes())
}
