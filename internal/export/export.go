// Package export writes a RunResult out to CSV, JSON, and PDF. The
// three writers share one input and never mutate it.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/result"
)

// WriteCSV writes a header row, then one row per assignment in
// session-id order: session_id, course_id, day, slot_ids
// (semicolon-joined), room_id, instructor_id.
func WriteCSV(w io.Writer, cat *catalog.Catalog, assignments []assignment.Assignment) error {
	sorted := sortedBySessionID(assignments)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"session_id", "course_id", "day", "slot_ids", "room_id", "instructor_id"}); err != nil {
		return errors.Wrap(err, "write header")
	}

	for _, a := range sorted {
		day := ""
		if len(a.Seq) > 0 {
			if t, ok := cat.TimeSlots[a.Seq[0]]; ok {
				day = t.Day
			}
		}
		slots := make([]string, len(a.Seq))
		for i, s := range a.Seq {
			slots[i] = strconv.Itoa(s)
		}
		row := []string{
			a.Session.ID,
			a.Session.Course.ID,
			day,
			strings.Join(slots, ";"),
			a.Room.ID,
			a.Instructor.ID,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write row for session %q", a.Session.ID)
		}
	}

	cw.Flush()
	return cw.Error()
}

// jsonAssignment is the wire shape of one assignment in the JSON
// RunResult document.
type jsonAssignment struct {
	SessionID    string `json:"session_id"`
	CourseID     string `json:"course_id"`
	Day          string `json:"day"`
	SlotIDs      []int  `json:"slot_ids"`
	RoomID       string `json:"room_id"`
	InstructorID string `json:"instructor_id"`
}

type jsonCost struct {
	InstructorPenalty int `json:"instructor_penalty"`
	GapPenalty        int `json:"gap_penalty"`
	Total             int `json:"total"`
}

type jsonDurations struct {
	LoadMs     int64 `json:"load_ms"`
	BuildMs    int64 `json:"build_ms"`
	SolveMs    int64 `json:"solve_ms"`
	OptimizeMs int64 `json:"optimize_ms"`
}

type jsonRunResult struct {
	RunID          string           `json:"run_id"`
	Assignments    []jsonAssignment `json:"assignments"`
	CostBefore     jsonCost         `json:"cost_before_optimize"`
	CostAfter      jsonCost         `json:"cost_after_optimize"`
	PhaseDurations jsonDurations    `json:"phase_durations"`
}

// WriteJSON writes a RunResult-shaped document for the query API and
// for re-scoring a previously generated run.
func WriteJSON(w io.Writer, cat *catalog.Catalog, rr *result.RunResult) error {
	doc := jsonRunResult{
		RunID: rr.RunID,
		CostBefore: jsonCost{
			InstructorPenalty: rr.CostBeforeOptimize.InstructorPenalty,
			GapPenalty:        rr.CostBeforeOptimize.GapPenalty,
			Total:             rr.CostBeforeOptimize.Total,
		},
		CostAfter: jsonCost{
			InstructorPenalty: rr.CostAfterOptimize.InstructorPenalty,
			GapPenalty:        rr.CostAfterOptimize.GapPenalty,
			Total:             rr.CostAfterOptimize.Total,
		},
		PhaseDurations: jsonDurations{
			LoadMs:     rr.LoadDuration.Milliseconds(),
			BuildMs:    rr.BuildDuration.Milliseconds(),
			SolveMs:    rr.SolveDuration.Milliseconds(),
			OptimizeMs: rr.OptimizeDuration.Milliseconds(),
		},
	}

	for _, a := range sortedBySessionID(rr.Assignments) {
		day := ""
		if len(a.Seq) > 0 {
			if t, ok := cat.TimeSlots[a.Seq[0]]; ok {
				day = t.Day
			}
		}
		doc.Assignments = append(doc.Assignments, jsonAssignment{
			SessionID:    a.Session.ID,
			CourseID:     a.Session.Course.ID,
			Day:          day,
			SlotIDs:      a.Seq,
			RoomID:       a.Room.ID,
			InstructorID: a.Instructor.ID,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "encode run result")
}

// WritePDF writes a human-readable room-by-time grid, one page per day.
func WritePDF(w io.Writer, cat *catalog.Catalog, assignments []assignment.Assignment) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 9)

	byDay := make(map[string][]assignment.Assignment)
	for _, a := range assignments {
		if len(a.Seq) == 0 {
			continue
		}
		t, ok := cat.TimeSlots[a.Seq[0]]
		if !ok {
			continue
		}
		byDay[t.Day] = append(byDay[t.Day], a)
	}

	var days []string
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 10, fmt.Sprintf("Schedule: %s", day), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(25, 8, "Room", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 8, "Slot", "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 8, "Course", "1", 0, "C", false, 0, "")
		pdf.CellFormat(60, 8, "Instructor", "1", 1, "C", false, 0, "")

		rows := byDay[day]
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Room.ID != rows[j].Room.ID {
				return rows[i].Room.ID < rows[j].Room.ID
			}
			return rows[i].Seq[0] < rows[j].Seq[0]
		})

		pdf.SetFont("Helvetica", "", 9)
		for _, a := range rows {
			pdf.CellFormat(25, 8, a.Room.ID, "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 8, strconv.Itoa(a.Seq[0]), "1", 0, "C", false, 0, "")
			pdf.CellFormat(60, 8, a.Session.Course.Name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 8, a.Instructor.Name, "1", 1, "L", false, 0, "")
		}
	}

	return errors.Wrap(pdf.Output(w), "write pdf")
}

func sortedBySessionID(assignments []assignment.Assignment) []assignment.Assignment {
	out := make([]assignment.Assignment, len(assignments))
	copy(out, assignments)
	sort.Slice(out, func(i, j int) bool { return out[i].Session.ID < out[j].Session.ID })
	return out
}
