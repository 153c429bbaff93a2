package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/C-Tharun/vitalsync/internal/models"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.engine.User()
	if userID == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Dashboard())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.engine.User()
	if userID == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active session"})
		return
	}

	kind := models.MetricKind(r.URL.Query().Get("metric"))
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown metric"})
		return
	}

	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	s.engine.Select(kind, date.UnixMilli())
	writeJSON(w, http.StatusOK, s.engine.History())
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.engine.User()
	if userID == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active session"})
		return
	}

	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	recs, err := s.store.GetRange(r.Context(), userID, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type sessionRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, name := s.engine.User()
	writeJSON(w, http.StatusOK, sessionRequest{UserID: userID, Name: name})
}

func (s *Server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id is required"})
		return
	}

	s.engine.SetUser(req.UserID, req.Name)
	writeJSON(w, http.StatusOK, req)
}

type syncRequest struct {
	Metric string `json:"metric,omitempty"`
	Start  int64  `json:"start,omitempty"`
	End    int64  `json:"end,omitempty"`
	Week   bool   `json:"week,omitempty"`
}

// handleSync runs an explicit sync: a metric window when one is named,
// the trailing week when week=true, otherwise everything for today.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.engine.User()
	if userID == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active session"})
		return
	}

	var req syncRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
			return
		}
	}

	var err error
	switch {
	case req.Metric != "":
		kind := models.MetricKind(req.Metric)
		if !kind.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown metric"})
			return
		}
		end := req.End
		if end == 0 {
			end = time.Now().UnixMilli()
		}
		err = s.syncer.SyncHistory(r.Context(), userID, kind, req.Start, end)
	case req.Week:
		err = s.syncer.SyncLastWeek(r.Context(), userID)
	default:
		err = s.syncer.SyncAllMetricsForToday(r.Context(), userID)
	}
	if err != nil {
		s.log.Error("sync failed", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSyncSummary(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.engine.User()
	if userID == "" {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active session"})
		return
	}

	if err := s.syncer.SyncTodaySummary(r.Context(), userID); err != nil {
		s.log.Error("summary sync failed", "user", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseTimeRange reads start/end query params as epoch milliseconds,
// RFC3339 timestamps, or plain dates. Missing params default to the last
// seven days.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = parseTimeParam(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endStr == "" {
		end = time.Now()
		return
	}
	end, err = parseTimeParam(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return
}

func parseTimeParam(v string) (time.Time, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
