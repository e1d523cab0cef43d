package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/mo"

	"nofusscal/internal/caldate"
	"nofusscal/internal/ics"
	"nofusscal/internal/model"
)

// monthResponse is the JSON response shape for /api/month.
type monthResponse struct {
	Year          int        `json:"year"`
	Month         int        `json:"month"`
	Label         string     `json:"label"`
	FirstWeekday  int        `json:"first_weekday"` // 1 = Sunday
	DaysInMonth   int        `json:"days_in_month"`
	WeekStart     string     `json:"week_start"`
	MilitaryClock bool       `json:"military_time"`
	Entries       []entryDTO `json:"entries"`
}

type entryDTO struct {
	Days  []int    `json:"days"`
	Event eventDTO `json:"event"`
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date   caldate.Date `json:"date"`
	Label  string       `json:"label"`
	Events []eventDTO   `json:"events"`
}

// eventDTO is a JSON-friendly view of an event. Times are "HH:MM" and empty
// for all-day events.
type eventDTO struct {
	UID         string       `json:"uid"`
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	Description string       `json:"description,omitempty"`
	Color       string       `json:"color,omitempty"`
	AllDay      bool         `json:"all_day"`
	StartDate   caldate.Date `json:"start_date"`
	StartTime   string       `json:"start_time,omitempty"`
	EndDate     caldate.Date `json:"end_date"`
	EndTime     string       `json:"end_time,omitempty"`
	TimeLabel   string       `json:"time_label"`
	Rule        *ruleDTO     `json:"rule,omitempty"`
	Alarm       *ics.Alarm   `json:"alarm,omitempty"`
	ReadOnly    bool         `json:"read_only"`
}

type ruleDTO struct {
	Freq     string        `json:"freq"`
	Interval int           `json:"interval,omitempty"`
	ByDay    string        `json:"by_day,omitempty"`
	ByMonth  string        `json:"by_month,omitempty"`
	Until    *caldate.Date `json:"until,omitempty"`
	Count    int           `json:"count,omitempty"`
}

// eventRequest is the body of POST /api/events and PUT /api/events/{uid}.
type eventRequest struct {
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	AllDay      bool         `json:"all_day"`
	StartDate   caldate.Date `json:"start_date"`
	StartTime   string       `json:"start_time"`
	EndDate     caldate.Date `json:"end_date"`
	EndTime     string       `json:"end_time"`
	Rule        *ruleDTO     `json:"rule"`
	Alarm       *ics.Alarm   `json:"alarm"`
}

func (s *Server) toDTO(e model.Event) eventDTO {
	_, readOnly, _ := s.cal.Event(e.UID)
	dto := eventDTO{
		UID:         e.UID,
		Title:       e.Title,
		Location:    e.Location,
		Description: e.Description,
		Color:       e.Color,
		AllDay:      e.IsAllDay(),
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		TimeLabel:   e.TimeLabel(s.cfg.MilitaryTime),
		ReadOnly:    readOnly,
	}
	if !e.IsAllDay() {
		dto.StartTime = clock(e.StartTime)
		dto.EndTime = clock(e.EndTime)
	}
	if rule, ok := e.Rule.Get(); ok {
		rd := &ruleDTO{Freq: rule.Frequency.String(), Interval: rule.Interval}
		switch rule.By {
		case model.ByDay:
			rd.ByDay = rule.ByValue
		case model.ByMonth:
			rd.ByMonth = rule.ByValue
		}
		switch rule.Limit.Kind {
		case model.UntilDate:
			until := rule.Limit.Until
			rd.Until = &until
		case model.UntilCount:
			rd.Count = rule.Limit.Count
		}
		dto.Rule = rd
	}
	if alarm, ok := e.Alarm.Get(); ok {
		dto.Alarm = &alarm
	}
	return dto
}

// decodeFields reads an eventRequest and writes a 400 when it is unusable.
func decodeFields(w http.ResponseWriter, r *http.Request) (model.Fields, bool) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return model.Fields{}, false
	}
	f, err := req.fields()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Fields{}, false
	}
	return f, true
}

func (req eventRequest) fields() (model.Fields, error) {
	f := model.Fields{
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		Color:       req.Color,
		AllDay:      req.AllDay,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if !req.AllDay {
		var err error
		if f.StartTime, err = parseClock(req.StartTime); err != nil {
			return model.Fields{}, err
		}
		if f.EndTime, err = parseClock(req.EndTime); err != nil {
			return model.Fields{}, err
		}
	}
	if req.Rule != nil {
		rule, err := req.Rule.rule()
		if err != nil {
			return model.Fields{}, err
		}
		f.Rule = mo.Some(rule)
	}
	if req.Alarm != nil {
		f.Alarm = mo.Some(*req.Alarm)
	}
	return f, nil
}

func (rd ruleDTO) rule() (model.Rule, error) {
	freq, ok := model.ParseFrequency(rd.Freq)
	if !ok {
		return model.Rule{}, fmt.Errorf("%w: unknown frequency %q", model.ErrMalformedRecurrence, rd.Freq)
	}
	rule := model.Rule{Frequency: freq, Interval: rd.Interval, Limit: model.Forever()}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	switch {
	case rd.ByDay != "":
		rule.By, rule.ByValue = model.ByDay, rd.ByDay
	case rd.ByMonth != "":
		rule.By, rule.ByValue = model.ByMonth, rd.ByMonth
	}
	switch {
	case rd.Until != nil:
		rule.Limit = model.Until(*rd.Until)
	case rd.Count != 0:
		rule.Limit = model.Occurrences(rd.Count)
	}
	return rule, nil
}

func clock(t model.TimeOfDay) string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// parseClock reads "HH:MM".
func parseClock(s string) (model.TimeOfDay, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return model.TimeOfDay{}, fmt.Errorf("%w: %q is not HH:MM", model.ErrInvalidTime, s)
	}
	h, errH := strconv.Atoi(hh)
	m, errM := strconv.Atoi(mm)
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return model.TimeOfDay{}, fmt.Errorf("%w: %q", model.ErrInvalidTime, s)
	}
	return model.TimeOfDay{Hour: h, Minute: m}, nil
}
