// Package api serves a read-only gin HTTP API over one previously
// generated RunResult. It never mutates the state tracker or re-enters
// the solver; it only reads the RunResult it was handed.
package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deptsched/scheduler/internal/assignment"
	"github.com/deptsched/scheduler/internal/catalog"
	"github.com/deptsched/scheduler/internal/optimize"
	"github.com/deptsched/scheduler/internal/result"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_api_requests_total",
		Help: "Total HTTP requests served by the query API.",
	}, []string{"path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "schedule_api_request_duration_seconds",
		Help: "Latency of HTTP requests served by the query API.",
	}, []string{"path"})

	phase2Cost = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_phase2_cost",
		Help: "Current Phase-2 optimizer cost for the in-flight or most recent solve.",
	})

	phase2Iterations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_phase2_iterations",
		Help: "Iterations run by the in-flight or most recent Phase-2 solve.",
	})
)

// Store holds the single RunResult the API serves, swapped atomically
// whenever a new solve completes. It has no solver-internals access.
type Store struct {
	mu  sync.RWMutex
	cat *catalog.Catalog
	rr  *result.RunResult
}

func NewStore() *Store {
	return &Store{}
}

// Set publishes a new snapshot for the API to serve.
func (s *Store) Set(cat *catalog.Catalog, rr *result.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cat = cat
	s.rr = rr
}

func (s *Store) get() (*catalog.Catalog, *result.RunResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat, s.rr
}

// OnProgress is an optimize.Config.OnProgress-shaped hook that updates
// the prometheus gauges and broadcasts to connected /ws/progress
// clients.
func (s *Store) OnProgress(hub *ProgressHub) func(optimize.Progress) {
	return func(p optimize.Progress) {
		phase2Cost.Set(float64(p.Cost))
		phase2Iterations.Set(float64(p.Iteration))
		if hub != nil {
			hub.Broadcast(p)
		}
	}
}

// NewRouter builds the gin engine serving the query API's routes.
// corsOrigins enables CORS for all routes when it contains "*".
func NewRouter(store *Store, hub *ProgressHub, corsOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	corsCfg := cors.DefaultConfig()
	if len(corsOrigins) == 1 && corsOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = corsOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.GET("/sessions", store.handleSessions)
	v1.GET("/instructors/:id/schedule", store.handleInstructorSchedule)
	v1.GET("/rooms/:id/schedule", store.handleRoomSchedule)
	v1.GET("/rooms", store.handleRooms)
	v1.GET("/cost", store.handleCost)
	v1.GET("/levels", store.handleLevels)
	v1.GET("/courses", store.handleCourses)
	v1.GET("/courses/:id", store.handleCourseDetail)
	v1.GET("/sections", store.handleSections)
	v1.GET("/metadata", store.handleMetadata)
	v1.GET("/timetable", store.handleTimetable)

	r.GET("/ws/progress", hub.handleWebsocket)

	return r
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(requestDuration.WithLabelValues(c.FullPath()))
		c.Next()
		timer.ObserveDuration()
		requestsTotal.WithLabelValues(c.FullPath(), http.StatusText(c.Writer.Status())).Inc()
	}
}

type sessionView struct {
	SessionID    string `json:"session_id"`
	CourseID     string `json:"course_id"`
	Day          string `json:"day"`
	SlotIDs      []int  `json:"slot_ids"`
	RoomID       string `json:"room_id"`
	InstructorID string `json:"instructor_id"`
}

func (s *Store) handleSessions(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	views := make([]sessionView, 0, len(rr.Assignments))
	for _, a := range rr.Assignments {
		views = append(views, toSessionView(cat, a.Session.ID, a.Session.Course.ID, a.Seq, a.Room.ID, a.Instructor.ID))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].SessionID < views[j].SessionID })
	c.JSON(http.StatusOK, gin.H{"sessions": views})
}

func (s *Store) handleInstructorSchedule(c *gin.Context) {
	id := c.Param("id")
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	var views []sessionView
	for _, a := range rr.Assignments {
		if a.Instructor.ID != id {
			continue
		}
		views = append(views, toSessionView(cat, a.Session.ID, a.Session.Course.ID, a.Seq, a.Room.ID, a.Instructor.ID))
	}
	if views == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instructor or no placements"})
		return
	}
	sort.Slice(views, func(i, j int) bool {
		return firstSlot(views[i].SlotIDs) < firstSlot(views[j].SlotIDs)
	})
	c.JSON(http.StatusOK, gin.H{"instructor_id": id, "placements": views})
}

func (s *Store) handleRoomSchedule(c *gin.Context) {
	id := c.Param("id")
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	var views []sessionView
	for _, a := range rr.Assignments {
		if a.Room.ID != id {
			continue
		}
		views = append(views, toSessionView(cat, a.Session.ID, a.Session.Course.ID, a.Seq, a.Room.ID, a.Instructor.ID))
	}
	if views == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room or no placements"})
		return
	}
	sort.Slice(views, func(i, j int) bool {
		return firstSlot(views[i].SlotIDs) < firstSlot(views[j].SlotIDs)
	})
	c.JSON(http.StatusOK, gin.H{"room_id": id, "occupancy": views})
}

func (s *Store) handleCost(c *gin.Context) {
	_, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":          rr.RunID,
		"before_optimize": rr.CostBeforeOptimize,
		"after_optimize":  rr.CostAfterOptimize,
	})
}

// levelView rolls up the sections at one level, by department and
// specialization.
type levelView struct {
	Level           int      `json:"level"`
	Departments     []string `json:"departments"`
	Specializations []string `json:"specializations"`
	SectionCount    int      `json:"section_count"`
	Sections        []string `json:"sections"`
}

func (s *Store) handleLevels(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	type agg struct {
		departments     map[string]struct{}
		specializations map[string]struct{}
		sections        map[string]struct{}
	}
	byLevel := make(map[int]*agg)
	for _, sec := range cat.Sections {
		a, ok := byLevel[sec.Level]
		if !ok {
			a = &agg{departments: map[string]struct{}{}, specializations: map[string]struct{}{}, sections: map[string]struct{}{}}
			byLevel[sec.Level] = a
		}
		a.departments[sec.Department] = struct{}{}
		a.specializations[sec.Specialization] = struct{}{}
		a.sections[sec.ID] = struct{}{}
	}

	var levels []int
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	views := make([]levelView, 0, len(levels))
	for _, l := range levels {
		a := byLevel[l]
		views = append(views, levelView{
			Level:           l,
			Departments:     sortedKeys(a.departments),
			Specializations: sortedKeys(a.specializations),
			SectionCount:    len(a.sections),
			Sections:        sortedKeys(a.sections),
		})
	}
	c.JSON(http.StatusOK, gin.H{"levels": views})
}

type courseView struct {
	CourseID        string `json:"course_id"`
	Name            string `json:"name"`
	LectureDuration int    `json:"lecture_duration"`
	LabDuration     int    `json:"lab_duration"`
	LabSpaceKind    string `json:"lab_space_kind"`
}

func toCourseView(crs *catalog.Course) courseView {
	return courseView{
		CourseID:        crs.ID,
		Name:            crs.Name,
		LectureDuration: crs.LectureDuration,
		LabDuration:     crs.LabDuration,
		LabSpaceKind:    crs.LabSpaceKind,
	}
}

func (s *Store) handleCourses(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	views := make([]courseView, 0, len(cat.Courses))
	for _, crs := range cat.Courses {
		views = append(views, toCourseView(crs))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CourseID < views[j].CourseID })
	c.JSON(http.StatusOK, gin.H{"courses": views})
}

type sectionView struct {
	SectionID      string `json:"section_id"`
	Department     string `json:"department"`
	Level          int    `json:"level"`
	Specialization string `json:"specialization"`
	StudentCount   int    `json:"student_count"`
}

func toSectionView(sec *catalog.Section) sectionView {
	return sectionView{
		SectionID:      sec.ID,
		Department:     sec.Department,
		Level:          sec.Level,
		Specialization: sec.Specialization,
		StudentCount:   sec.StudentCount,
	}
}

func (s *Store) handleSections(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	views := make([]sectionView, 0, len(cat.Sections))
	for _, sec := range cat.Sections {
		views = append(views, toSectionView(sec))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].SectionID < views[j].SectionID })
	c.JSON(http.StatusOK, gin.H{"sections": views})
}

type roomView struct {
	RoomID    string `json:"room_id"`
	Capacity  int    `json:"capacity"`
	RoomType  string `json:"room_type"`
	SpaceKind string `json:"space_kind"`
}

func (s *Store) handleRooms(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	views := make([]roomView, 0, len(cat.Rooms))
	for _, room := range cat.Rooms {
		views = append(views, roomView{RoomID: room.ID, Capacity: room.Capacity, RoomType: room.RoomType, SpaceKind: room.SpaceKind})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].RoomID < views[j].RoomID })
	c.JSON(http.StatusOK, gin.H{"rooms": views})
}

func (s *Store) handleMetadata(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":           rr.RunID,
		"course_count":     len(cat.Courses),
		"room_count":       len(cat.Rooms),
		"instructor_count": len(cat.Instructors),
		"section_count":    len(cat.Sections),
		"session_count":    len(rr.Assignments),
		"before_optimize":  rr.CostBeforeOptimize,
		"after_optimize":   rr.CostAfterOptimize,
		"load_ms":          rr.LoadDuration.Milliseconds(),
		"build_ms":         rr.BuildDuration.Milliseconds(),
		"solve_ms":         rr.SolveDuration.Milliseconds(),
		"optimize_ms":      rr.OptimizeDuration.Milliseconds(),
	})
}

// scheduleEntryView is a richer placement view than sessionView,
// carrying the session kind and the sections it serves, for the
// course-detail and timetable endpoints.
type scheduleEntryView struct {
	SessionID    string   `json:"session_id"`
	CourseID     string   `json:"course_id"`
	SessionKind  string   `json:"session_kind"`
	Day          string   `json:"day"`
	SlotIDs      []int    `json:"slot_ids"`
	RoomID       string   `json:"room_id"`
	InstructorID string   `json:"instructor_id"`
	Sections     []string `json:"sections"`
}

func toScheduleEntry(cat *catalog.Catalog, a assignment.Assignment) scheduleEntryView {
	day := ""
	if len(a.Seq) > 0 {
		if t, ok := cat.TimeSlots[a.Seq[0]]; ok {
			day = t.Day
		}
	}
	sections := make([]string, 0, len(a.Session.Sections))
	for _, sec := range a.Session.Sections {
		sections = append(sections, sec.ID)
	}
	sort.Strings(sections)
	return scheduleEntryView{
		SessionID:    a.Session.ID,
		CourseID:     a.Session.Course.ID,
		SessionKind:  a.Session.Kind.String(),
		Day:          day,
		SlotIDs:      a.Seq,
		RoomID:       a.Room.ID,
		InstructorID: a.Instructor.ID,
		Sections:     sections,
	}
}

type courseInstructorView struct {
	InstructorID   string              `json:"instructor_id"`
	InstructorName string              `json:"instructor_name"`
	Sessions       []scheduleEntryView `json:"sessions"`
}

// handleCourseDetail serves one course's full placement: every
// instructor teaching it, every section taking it, and its complete
// schedule — a superset of a course's schedule alone.
func (s *Store) handleCourseDetail(c *gin.Context) {
	id := c.Param("id")
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}
	crs, ok := cat.Courses[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown course"})
		return
	}

	var schedule []scheduleEntryView
	instructors := make(map[string]*courseInstructorView)
	sectionsSeen := make(map[string]struct{})
	totalStudents := 0

	for _, a := range rr.Assignments {
		if a.Session.Course.ID != id {
			continue
		}
		entry := toScheduleEntry(cat, a)
		schedule = append(schedule, entry)

		iv, ok := instructors[a.Instructor.ID]
		if !ok {
			iv = &courseInstructorView{InstructorID: a.Instructor.ID, InstructorName: a.Instructor.Name}
			instructors[a.Instructor.ID] = iv
		}
		iv.Sessions = append(iv.Sessions, entry)

		for _, sec := range a.Session.Sections {
			if _, seen := sectionsSeen[sec.ID]; !seen {
				sectionsSeen[sec.ID] = struct{}{}
				totalStudents += sec.StudentCount
			}
		}
	}

	instructorViews := make([]*courseInstructorView, 0, len(instructors))
	for _, iv := range instructors {
		instructorViews = append(instructorViews, iv)
	}
	sort.Slice(instructorViews, func(i, j int) bool { return instructorViews[i].InstructorID < instructorViews[j].InstructorID })

	sectionViews := make([]sectionView, 0, len(sectionsSeen))
	for sid := range sectionsSeen {
		if sec, ok := cat.Sections[sid]; ok {
			sectionViews = append(sectionViews, toSectionView(sec))
		}
	}
	sort.Slice(sectionViews, func(i, j int) bool { return sectionViews[i].SectionID < sectionViews[j].SectionID })
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].SessionID < schedule[j].SessionID })

	c.JSON(http.StatusOK, gin.H{
		"course":         toCourseView(crs),
		"instructors":    instructorViews,
		"sections":       sectionViews,
		"total_students": totalStudents,
		"schedule":       schedule,
		"total_sessions": len(schedule),
	})
}

// handleTimetable serves the full placement list, optionally filtered
// by day, section level, or a single section id.
func (s *Store) handleTimetable(c *gin.Context) {
	cat, rr := s.get()
	if rr == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no run result available yet"})
		return
	}

	day := c.Query("day")
	section := c.Query("section")

	var level int
	filterLevel := false
	if levelStr := c.Query("level"); levelStr != "" {
		l, err := strconv.Atoi(levelStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "level must be an integer"})
			return
		}
		level = l
		filterLevel = true
	}

	var entries []scheduleEntryView
	for _, a := range rr.Assignments {
		if day != "" {
			entryDay := ""
			if len(a.Seq) > 0 {
				if t, ok := cat.TimeSlots[a.Seq[0]]; ok {
					entryDay = t.Day
				}
			}
			if !strings.EqualFold(entryDay, day) {
				continue
			}
		}
		if filterLevel {
			matches := false
			for _, sec := range a.Session.Sections {
				if sec.Level == level {
					matches = true
					break
				}
			}
			if !matches {
				continue
			}
		}
		if section != "" {
			matches := false
			for _, sec := range a.Session.Sections {
				if sec.ID == section {
					matches = true
					break
				}
			}
			if !matches {
				continue
			}
		}
		entries = append(entries, toScheduleEntry(cat, a))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SessionID < entries[j].SessionID })
	c.JSON(http.StatusOK, gin.H{"schedule": entries, "total_entries": len(entries)})
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toSessionView(cat *catalog.Catalog, sessionID, courseID string, seq []int, roomID, instructorID string) sessionView {
	day := ""
	if len(seq) > 0 {
		if t, ok := cat.TimeSlots[seq[0]]; ok {
			day = t.Day
		}
	}
	return sessionView{
		SessionID:    sessionID,
		CourseID:     courseID,
		Day:          day,
		SlotIDs:      seq,
		RoomID:       roomID,
		InstructorID: instructorID,
	}
}

func firstSlot(slots []int) int {
	if len(slots) == 0 {
		return 0
	}
	return slots[0]
}

// ProgressHub fans Phase-2 progress events out to every connected
// /ws/progress client, closing each connection when the optimizer
// returns.
type ProgressHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *ProgressHub) handleWebsocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// the client never sends anything meaningful; block on read only to
	// notice when it disconnects, then drop it from the broadcast set.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a progress event to every connected client. A
// client whose write fails is dropped.
func (h *ProgressHub) Broadcast(p optimize.Progress) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(p); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Close shuts down every connected client, called once the optimizer
// returns.
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
