package usecases

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/samirrijal/mapexplorer/internal/core/domain"
)

const (
	// PlanFilename is the download name of the text export.
	PlanFilename = "day-plan.txt"
	// CalendarFilename is the download name of the calendar export.
	CalendarFilename = "day-plan.ics"

	unknownMethod   = "Not specified"
	defaultStopTime = time.Hour
	dayStartHour    = 9
)

// ExportService renders a finalized itinerary as downloadable documents.
type ExportService struct {
	sessions *SessionService
	now      func() time.Time
}

// NewExportService creates a new ExportService.
func NewExportService(sessions *SessionService) *ExportService {
	return &ExportService{sessions: sessions, now: time.Now}
}

// Text returns the day plan of a session as plain text.
// It returns domain.ErrEmptyItinerary when there is nothing to export.
func (s *ExportService) Text(id string) ([]byte, error) {
	plan, routes, err := s.sessions.Plan(id)
	if err != nil {
		return nil, err
	}
	return RenderPlanText(plan, routes)
}

// Calendar returns the day plan of a session as an iCalendar document
// anchored on day (today when zero).
func (s *ExportService) Calendar(id string, day time.Time) ([]byte, error) {
	plan, routes, err := s.sessions.Plan(id)
	if err != nil {
		return nil, err
	}
	if day.IsZero() {
		day = s.now()
	}
	return RenderPlanCalendar(id, plan, routes, day, s.now())
}

// RenderPlanText formats an itinerary: a heading, then one numbered block per
// entry. A travel block follows every entry but the last when a route
// connects it to the next one.
func RenderPlanText(plan []domain.Location, routes []domain.Route) ([]byte, error) {
	if len(plan) == 0 {
		return nil, domain.ErrEmptyItinerary
	}

	var b bytes.Buffer
	b.WriteString("# Your Day Plan\n\n")
	for i, item := range plan {
		when := item.Time
		if when == "" {
			when = flexibleTime
		}
		fmt.Fprintf(&b, "## %d. %s\n", i+1, item.Name)
		fmt.Fprintf(&b, "Time: %s\n", when)
		if item.Duration != "" {
			fmt.Fprintf(&b, "Duration: %s\n", item.Duration)
		}
		fmt.Fprintf(&b, "\n%s\n\n", item.Description)

		if i == len(plan)-1 {
			continue
		}
		next := plan[i+1]
		r, ok := domain.ConnectingRoute(routes, item, next)
		if !ok {
			continue
		}
		method := r.Transport
		if method == "" {
			method = unknownMethod
		}
		fmt.Fprintf(&b, "### Travel to %s\n", next.Name)
		fmt.Fprintf(&b, "Method: %s\n", method)
		if r.TravelTime != "" {
			fmt.Fprintf(&b, "Time: %s\n", r.TravelTime)
		}
		b.WriteString("\n")
	}
	return b.Bytes(), nil
}

// RenderPlanCalendar builds one VEVENT per itinerary entry. Entries without a
// time follow the previous one; the first untimed entry starts at 09:00.
func RenderPlanCalendar(uidPrefix string, plan []domain.Location, routes []domain.Route, day, stamp time.Time) ([]byte, error) {
	if len(plan) == 0 {
		return nil, domain.ErrEmptyItinerary
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	cursor := time.Date(day.Year(), day.Month(), day.Day(), dayStartHour, 0, 0, 0, day.Location())
	for i, item := range plan {
		start := cursor
		if t, ok := clockOn(day, item.Time); ok {
			start = t
		}
		length, ok := ParseLooseDuration(item.Duration)
		if !ok {
			length = defaultStopTime
		}
		end := start.Add(length)

		event := cal.AddEvent(fmt.Sprintf("%s-%d@mapexplorer", uidPrefix, i+1))
		event.SetCreatedTime(stamp)
		event.SetDtStampTime(stamp)
		event.SetModifiedAt(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%d. %s", i+1, item.Name))
		event.SetLocation(fmt.Sprintf("%.5f, %.5f", item.Position.Lat, item.Position.Lng))

		desc := item.Description
		if i < len(plan)-1 {
			if r, found := domain.ConnectingRoute(routes, item, plan[i+1]); found && (r.Transport != "" || r.TravelTime != "") {
				desc += fmt.Sprintf("\n\nNext: %s to %s", strings.TrimSpace(r.Transport+" "+r.TravelTime), plan[i+1].Name)
			}
		}
		event.SetDescription(desc)

		cursor = end
	}

	var b bytes.Buffer
	if err := cal.SerializeTo(&b); err != nil {
		return nil, fmt.Errorf("serialize calendar: %w", err)
	}
	return b.Bytes(), nil
}

func clockOn(day time.Time, hhmm string) (time.Time, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}

var durationPart = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|minutes?|mins?|m)\b`)

// ParseLooseDuration reads free-text durations such as "1 hour",
// "1.5 hours" or "2h 30min".
func ParseLooseDuration(s string) (time.Duration, bool) {
	var total time.Duration
	for _, m := range durationPart.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		unit := time.Minute
		if strings.HasPrefix(strings.ToLower(m[2]), "h") {
			unit = time.Hour
		}
		total += time.Duration(n * float64(unit))
	}
	return total, total > 0
}
