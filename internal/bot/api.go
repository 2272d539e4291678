package bot

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"studybot/internal/domain"
	"studybot/internal/service"
)

// API Response types
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type BlockResponse struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Source   string  `json:"source"`
	CourseID *string `json:"course_id,omitempty"`
	Note     *string `json:"note,omitempty"`
}

type CourseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AllowAccess bool   `json:"allow_access"`
}

type EventResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	SyncedAt *string `json:"synced_at,omitempty"`
}

type CalendarResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
}

type PreferencesResponse struct {
	IncludeCanvas        bool   `json:"include_canvas"`
	IncludePersonal      bool   `json:"include_personal"`
	ConsiderHabits       string `json:"consider_habits"`
	FocusStart           string `json:"focus_start"`
	FocusEnd             string `json:"focus_end"`
	BreakMinutes         int    `json:"break_minutes"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	ReminderMode         string `json:"reminder_mode"`
	ReminderDescription  string `json:"reminder_description"`
}

// SetupAPI registers API routes with Basic Auth
func (b *Bot) SetupAPI() {
	if b.cfg.APIUsername == "" || b.cfg.APIPassword == "" {
		return // API disabled if no credentials
	}
	b.registerAPI(http.DefaultServeMux)
}

func (b *Bot) registerAPI(mux *http.ServeMux) {
	// Plan
	mux.HandleFunc("/api/plan", b.basicAuth(b.apiPlan))
	mux.HandleFunc("/api/plan/shift", b.basicAuth(b.apiPlanShift))

	// Courses
	mux.HandleFunc("/api/courses", b.basicAuth(b.apiCourses))
	mux.HandleFunc("/api/course/", b.basicAuth(b.apiCourseToggle))

	// Personal events
	mux.HandleFunc("/api/events", b.basicAuth(b.apiEvents))
	mux.HandleFunc("/api/event/", b.basicAuth(b.apiEventDelete))
	mux.HandleFunc("/api/calendars", b.basicAuth(b.apiCalendars))

	// Preferences
	mux.HandleFunc("/api/preferences", b.basicAuth(b.apiPreferences))

	// Data sync
	mux.HandleFunc("/api/sync", b.basicAuth(b.apiSync))
}

// basicAuth middleware
func (b *Bot) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != b.cfg.APIUsername || password != b.cfg.APIPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="StudyBot API"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (b *Bot) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func (b *Bot) jsonError(w http.ResponseWriter, err string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: err})
}

// GET /api/plan - visible plan blocks
// POST /api/plan - rebuild the plan, body {"strategy": "deterministic"|"generative"}
func (b *Bot) apiPlan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		blocks, err := b.planService.VisiblePlan()
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.jsonResponse(w, blocksToResponse(blocks))

	case http.MethodPost:
		var req struct {
			Strategy string `json:"strategy"`
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		strategy := service.StrategyDeterministic
		if req.Strategy == string(service.StrategyGenerative) {
			strategy = service.StrategyGenerative
		}
		if _, err := b.planService.BuildPlan(r.Context(), strategy); err != nil {
			b.jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		blocks, err := b.planService.VisiblePlan()
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.jsonResponse(w, blocksToResponse(blocks))

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/plan/shift - move a block, body {"id": "...", "minutes": -30}
func (b *Bot) apiPlanShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID      string `json:"id"`
		Minutes int    `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		b.jsonError(w, "id is required", http.StatusBadRequest)
		return
	}

	blk, err := b.planService.ShiftBlock(req.ID, req.Minutes)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	b.jsonResponse(w, blockToResponse(blk))
}

// GET /api/courses - list courses with access state
func (b *Bot) apiCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	courses, err := b.courseService.Courses()
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		resp = append(resp, CourseResponse{ID: c.ID, Name: c.Name, AllowAccess: c.AllowAccess})
	}
	b.jsonResponse(w, resp)
}

// POST /api/course/{id}/toggle - flip planner access for a course
func (b *Bot) apiCourseToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/course/")
	courseID := strings.TrimSuffix(path, "/toggle")
	if courseID == "" || strings.Contains(courseID, "/") {
		b.jsonError(w, "Invalid course path", http.StatusBadRequest)
		return
	}

	allowed, err := b.courseService.ToggleAccess(courseID)
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	b.jsonResponse(w, map[string]interface{}{"id": courseID, "allow_access": allowed})
}

// GET /api/events - list personal events
// POST /api/events - add a manual event, times in RFC 3339
func (b *Bot) apiEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		events, err := b.calendarService.Events()
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp := make([]EventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, eventToResponse(e))
		}
		b.jsonResponse(w, resp)

	case http.MethodPost:
		var req struct {
			Title string `json:"title"`
			Start string `json:"start"`
			End   string `json:"end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			b.jsonError(w, "start must be RFC 3339", http.StatusBadRequest)
			return
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			b.jsonError(w, "end must be RFC 3339", http.StatusBadRequest)
			return
		}
		evt, err := b.calendarService.AddEvent(r.Context(), req.Title, start, end)
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		b.jsonResponse(w, eventToResponse(evt))

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /api/calendars - list CalDAV calendar collections, for picking the
// collection to sync from
func (b *Bot) apiCalendars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !b.calendarService.IsConfigured() {
		b.jsonError(w, "CalDAV not configured", http.StatusServiceUnavailable)
		return
	}

	cals, err := b.calendarService.DiscoverCalendars(r.Context())
	if err != nil {
		b.jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := make([]CalendarResponse, 0, len(cals))
	for _, c := range cals {
		resp = append(resp, CalendarResponse{ID: c.ID, DisplayName: c.DisplayName, URL: c.URL})
	}
	b.jsonResponse(w, resp)
}

// DELETE /api/event/{id}
func (b *Bot) apiEventDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventID := strings.TrimPrefix(r.URL.Path, "/api/event/")
	if eventID == "" {
		b.jsonError(w, "Invalid event path", http.StatusBadRequest)
		return
	}

	if err := b.calendarService.DeleteEvent(eventID); err != nil {
		b.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	b.jsonResponse(w, map[string]string{"id": eventID})
}

// GET /api/preferences
// PUT /api/preferences - replace the live preferences
func (b *Bot) apiPreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		prefs, err := b.planService.Preferences()
		if err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.jsonResponse(w, prefsToResponse(prefs))

	case http.MethodPut:
		var req PreferencesResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if _, err := domain.ParseClockTime(req.FocusStart); err != nil {
			b.jsonError(w, "focus_start: "+err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := domain.ParseClockTime(req.FocusEnd); err != nil {
			b.jsonError(w, "focus_end: "+err.Error(), http.StatusBadRequest)
			return
		}

		prefs := &domain.Preferences{
			IncludeCanvas:        req.IncludeCanvas,
			IncludePersonal:      req.IncludePersonal,
			ConsiderHabits:       req.ConsiderHabits,
			FocusStart:           req.FocusStart,
			FocusEnd:             req.FocusEnd,
			BreakMinutes:         req.BreakMinutes,
			NotificationsEnabled: req.NotificationsEnabled,
			ReminderMode:         domain.ParseReminderMode(req.ReminderMode),
		}
		if err := b.planService.SavePreferences(prefs); err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		b.jsonResponse(w, prefsToResponse(prefs))

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /api/sync - pull Canvas courses/assignments and CalDAV events
func (b *Bot) apiSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	result := map[string]interface{}{}

	// Remote failures degrade to sample data rather than failing the sync.
	if b.courseService.IsConfigured() {
		sync, err := b.courseService.Sync(ctx)
		if err != nil {
			if sampleErr := b.courseService.LoadSample(time.Now()); sampleErr != nil {
				b.jsonError(w, sampleErr.Error(), http.StatusInternalServerError)
				return
			}
			result["canvas_error"] = err.Error()
			result["sample_data"] = true
		} else {
			result["courses"] = sync.Courses
			result["assignments"] = sync.Assignments
		}
	} else {
		if err := b.courseService.LoadSample(time.Now()); err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		result["sample_data"] = true
	}

	if b.calendarService.IsConfigured() {
		synced, err := b.calendarService.SyncFromCalDAV(ctx)
		if err != nil {
			if sampleErr := b.calendarService.SeedSample(time.Now()); sampleErr != nil {
				b.jsonError(w, sampleErr.Error(), http.StatusInternalServerError)
				return
			}
			result["calendar_error"] = err.Error()
			result["sample_events"] = true
		} else {
			result["events"] = synced
		}
	} else {
		if err := b.calendarService.SeedSample(time.Now()); err != nil {
			b.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		result["sample_events"] = true
	}

	b.jsonResponse(w, result)
}

func blockToResponse(blk *domain.ScheduleBlock) BlockResponse {
	return BlockResponse{
		ID:       blk.ID,
		Label:    blk.Label,
		Start:    blk.Start.Format(time.RFC3339),
		End:      blk.End.Format(time.RFC3339),
		Source:   string(blk.Source),
		CourseID: blk.CourseID,
		Note:     blk.Note,
	}
}

func blocksToResponse(blocks []*domain.ScheduleBlock) []BlockResponse {
	resp := make([]BlockResponse, 0, len(blocks))
	for _, blk := range blocks {
		resp = append(resp, blockToResponse(blk))
	}
	return resp
}

func eventToResponse(e *domain.PersonalEvent) EventResponse {
	resp := EventResponse{
		ID:    e.ID,
		Title: e.Title,
		Start: e.Start.Format(time.RFC3339),
		End:   e.End.Format(time.RFC3339),
	}
	if e.SyncedAt != nil {
		s := e.SyncedAt.Format(time.RFC3339)
		resp.SyncedAt = &s
	}
	return resp
}

func prefsToResponse(p *domain.Preferences) PreferencesResponse {
	return PreferencesResponse{
		IncludeCanvas:        p.IncludeCanvas,
		IncludePersonal:      p.IncludePersonal,
		ConsiderHabits:       p.ConsiderHabits,
		FocusStart:           p.FocusStart,
		FocusEnd:             p.FocusEnd,
		BreakMinutes:         p.BreakMinutes,
		NotificationsEnabled: p.NotificationsEnabled,
		ReminderMode:         string(p.ReminderMode),
		ReminderDescription:  p.ReminderMode.Description(),
	}
}
