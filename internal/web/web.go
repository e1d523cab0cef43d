package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"nofusscal/internal/caldate"
	"nofusscal/internal/calendar"
	"nofusscal/internal/config"
	appLog "nofusscal/internal/log"
	"nofusscal/internal/model"
)

// Server exposes the calendar over a small JSON API plus the raw calendar
// file.
type Server struct {
	cfg *config.Config
	cal *calendar.Calendar
	mux *http.ServeMux

	// refresh, when set, backs POST /api/refresh.
	refresh func(ctx context.Context) error
}

// NewServer constructs a new Server. refresh may be nil.
func NewServer(cfg *config.Config, cal *calendar.Calendar, refresh func(ctx context.Context) error) *Server {
	s := &Server{
		cfg:     cfg,
		cal:     cal,
		mux:     http.NewServeMux(),
		refresh: refresh,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// username or password counts as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="nofusscal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("POST /api/events", s.handleCreate)
	s.mux.HandleFunc("GET /api/events/{uid}", s.handleGet)
	s.mux.HandleFunc("PUT /api/events/{uid}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/events/{uid}", s.handleDelete)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendarFile)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleMonth returns the month grid metadata and every event occurring in
// it.
//
// GET /api/month?year=2024&month=7
//   - year, month default to the current month
//   - year must lie within MaxYearSpan of today
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	today := caldate.Today()
	q := r.URL.Query()
	year, err := queryInt(q, "year", today.Year())
	if err == nil {
		err = checkYear(year, today)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := queryInt(q, "month", today.Month())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	first, err := caldate.New(year, month, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := s.cal.Month(year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := monthResponse{
		Year:          year,
		Month:         month,
		Label:         first.Format(caldate.MonthYearLong),
		FirstWeekday:  first.FirstWeekdayOfMonth(),
		DaysInMonth:   first.DaysInMonth(),
		WeekStart:     s.cfg.WeekStart,
		Entries:       make([]entryDTO, 0, len(entries)),
		MilitaryClock: s.cfg.MilitaryTime,
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryDTO{Days: e.Days, Event: s.toDTO(e.Event)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDay lists the events of one day.
//
// GET /api/day?date=2024-07-04  or  ?year=2024&month=7&day=4
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		date caldate.Date
		err  error
	)
	today := caldate.Today()
	if raw := q.Get("date"); raw != "" {
		date, err = caldate.ParseISO(raw)
	} else {
		date, err = queryDate(q, today)
	}
	if err == nil {
		err = checkYear(date.Year(), today)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := s.cal.Day(date.Year(), date.Month(), date.Day())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := dayResponse{
		Date:   date,
		Label:  date.Format(caldate.FullLong),
		Events: make([]eventDTO, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, s.toDTO(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, _, err := s.cal.Event(r.PathValue("uid"))
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.toDTO(e))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	e, err := s.cal.Add(fields)
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	appLog.Info("event created", "uid", e.UID)
	writeJSON(w, http.StatusCreated, s.toDTO(e))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r)
	if !ok {
		return
	}
	e, err := s.cal.Update(r.PathValue("uid"), fields)
	if err != nil {
		s.writeCalendarError(w, err)
		return
	}
	appLog.Info("event updated", "uid", e.UID)
	writeJSON(w, http.StatusOK, s.toDTO(e))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := s.cal.Delete(uid); err != nil {
		s.writeCalendarError(w, err)
		return
	}
	appLog.Info("event deleted", "uid", uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh == nil {
		writeError(w, http.StatusNotImplemented, "refresh not configured")
		return
	}
	if err := s.refresh(r.Context()); err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCalendarFile serves the local events in the interchange format.
func (s *Server) handleCalendarFile(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(s.cal.Text()))
}

func (s *Server) writeCalendarError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, calendar.ErrReadOnly):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, calendar.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, calendar.ErrNotSaved):
		writeError(w, http.StatusInternalServerError, "failed to save calendar")
	case errors.Is(err, model.ErrInvalidEvent),
		errors.Is(err, model.ErrInvalidTime),
		errors.Is(err, model.ErrMalformedRecurrence),
		errors.Is(err, caldate.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("calendar operation failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// MaxYearSpan bounds how many years away from today a query may look.
// Month and day queries walk every event from its start.
const MaxYearSpan = 200

func checkYear(year int, today caldate.Date) error {
	if year < today.Year()-MaxYearSpan || year > today.Year()+MaxYearSpan {
		return fmt.Errorf("year %d outside %d..%d", year, today.Year()-MaxYearSpan, today.Year()+MaxYearSpan)
	}
	return nil
}

// queryInt reads the integer parameter name, or def when it is absent.
func queryInt(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return n, nil
}

func queryDate(q url.Values, today caldate.Date) (caldate.Date, error) {
	year, err := queryInt(q, "year", today.Year())
	if err != nil {
		return caldate.Date{}, err
	}
	month, err := queryInt(q, "month", today.Month())
	if err != nil {
		return caldate.Date{}, err
	}
	day, err := queryInt(q, "day", today.Day())
	if err != nil {
		return caldate.Date{}, err
	}
	return caldate.New(year, month, day)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
