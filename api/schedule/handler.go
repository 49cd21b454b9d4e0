// Package schedule exposes the planner over HTTP.
package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/kilianp07/rota/api/session"
	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/rotation"
	coresched "github.com/kilianp07/rota/core/schedule"
	"github.com/kilianp07/rota/pkg/export"
)

// NoNewDaysMessage is returned by POST /api/generate when every requested
// date is already scheduled.
const NoNewDaysMessage = "No new days to generate."

// Handler routes the schedule API.
type Handler struct {
	planner *coresched.Planner
	log     logger.Logger
	mux     *http.ServeMux
}

// NewHandler registers the API routes. Mutating routes go through
// auth.Require.
func NewHandler(p *coresched.Planner, auth *session.Manager, log logger.Logger) *Handler {
	h := &Handler{planner: p, log: log, mux: http.NewServeMux()}
	h.mux.Handle("POST /api/login", auth.LoginHandler())
	h.mux.Handle("POST /api/logout", auth.LogoutHandler())
	h.mux.HandleFunc("GET /api/schedule", h.getSchedule)
	h.mux.HandleFunc("GET /api/schedule/export", h.exportSchedule)
	h.mux.HandleFunc("GET /api/participants", h.getParticipants)
	h.mux.HandleFunc("GET /api/stats", h.getStats)
	h.mux.HandleFunc("GET /api/generations", h.getGenerations)
	h.mux.Handle("PUT /api/day/{date}/theme", auth.Require(http.HandlerFunc(h.putTheme)))
	h.mux.Handle("PUT /api/assignment/{id}", auth.Require(http.HandlerFunc(h.putAssignment)))
	h.mux.Handle("POST /api/generate", auth.Require(http.HandlerFunc(h.postGenerate)))
	h.mux.Handle("POST /api/participants", auth.Require(http.HandlerFunc(h.postParticipants)))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.mux.ServeHTTP(w, r) }

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	entries, err := h.planner.Schedule(r.Context())
	if err != nil {
		h.fail(w, "fetch schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) exportSchedule(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv"
	case "json":
		contentType = "application/json"
	default:
		writeError(w, http.StatusBadRequest, "unsupported format")
		return
	}
	entries, err := h.planner.Schedule(r.Context())
	if err != nil {
		h.fail(w, "export schedule", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=schedule."+format)
	if err := export.Write(w, format, entries); err != nil {
		h.log.Errorf("export schedule: %v", err)
	}
}

func (h *Handler) getParticipants(w http.ResponseWriter, r *http.Request) {
	ps, err := h.planner.Participants(r.Context())
	if err != nil {
		h.fail(w, "fetch participants", err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	rep, err := h.planner.Report(r.Context())
	if err != nil {
		h.fail(w, "fairness report", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) getGenerations(w http.ResponseWriter, r *http.Request) {
	q := coresched.AuditQuery{Date: r.URL.Query().Get("date")}
	for _, b := range []struct {
		param string
		dst   *time.Time
	}{{"start", &q.Start}, {"end", &q.End}} {
		s := r.URL.Query().Get(b.param)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+b.param+": expected RFC3339 time")
			return
		}
		*b.dst = t
	}
	recs, err := h.planner.Generations(r.Context(), q)
	if err != nil {
		h.fail(w, "query generations", err)
		return
	}
	if recs == nil {
		recs = []coresched.GenerationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) putTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.planner.SetTheme(r.Context(), r.PathValue("date"), body.Theme); err != nil {
		h.fail(w, "update theme", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) putAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	var body struct {
		RollNo string `json:"rollNo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RollNo == "" {
		writeError(w, http.StatusBadRequest, "rollNo is required")
		return
	}
	ra, err := h.planner.Reassign(r.Context(), id, body.RollNo)
	if err != nil {
		h.fail(w, "update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "from": ra.From, "to": ra.To})
}

type generateRequest struct {
	Days []model.SessionDate `json:"days"`
}

type generateResponse struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message,omitempty"`
	RunID     string                  `json:"runId,omitempty"`
	Generated int                     `json:"generated"`
	Skipped   []string                `json:"skipped"`
	Cursor    int                     `json:"cursor"`
	Stats     *rotation.Stats         `json:"stats,omitempty"`
	Entries   []model.AssignmentEntry `json:"entries,omitempty"`
}

func (h *Handler) postGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.planner.Plan(r.Context(), req.Days)
	if err != nil {
		h.fail(w, "generate schedule", err)
		return
	}
	if len(res.Entries) == 0 {
		writeJSON(w, http.StatusOK, generateResponse{Message: NoNewDaysMessage, Skipped: res.Skipped})
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Success:   true,
		RunID:     res.RunID,
		Generated: len(res.Entries),
		Skipped:   res.Skipped,
		Cursor:    res.Cursor,
		Stats:     &res.Stats,
		Entries:   res.Entries,
	})
}

func (h *Handler) postParticipants(w http.ResponseWriter, r *http.Request) {
	var ps []model.Participant
	if err := json.NewDecoder(r.Body).Decode(&ps); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n, err := h.planner.Import(r.Context(), ps)
	if err != nil {
		h.fail(w, "import participants", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "imported": n})
}

// fail maps domain errors to status codes. Unexpected errors are logged and
// hidden from the client.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, coresched.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coresched.ErrInvalidDates),
		errors.Is(err, rotation.ErrEmptyRoster),
		errors.Is(err, rotation.ErrRosterTooSmall),
		errors.Is(err, rotation.ErrDuplicateParticipant),
		errors.Is(err, model.ErrInvalidParticipant):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Errorf("%s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
