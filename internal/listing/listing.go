package listing

import (
	"sort"
	"strings"
	"time"

	"nibog/internal/models"
)

// Query holds the optional filters of the public event listing. Ages are in months.
type Query struct {
	City   string
	MinAge *int
	MaxAge *int
	Date   *time.Time
}

// Match reports whether e passes every filter set in q. Age filters use
// overlap: an event is kept when its age range intersects [MinAge, MaxAge].
func (q Query) Match(e models.Event) bool {
	if q.City != "" && !strings.EqualFold(strings.TrimSpace(e.City), strings.TrimSpace(q.City)) {
		return false
	}
	if q.MinAge != nil && e.MaxAgeMonths < *q.MinAge {
		return false
	}
	if q.MaxAge != nil && e.MinAgeMonths > *q.MaxAge {
		return false
	}
	if q.Date != nil && !e.Day().Equal(models.DateOf(*q.Date)) {
		return false
	}
	return true
}

// Arrange filters events and orders them: upcoming (dated today or later) by
// date ascending, then past events by date descending. Today is the calendar
// date of today in its own location.
func Arrange(events []models.Event, q Query, today time.Time) []models.Event {
	start := models.DateOf(today)

	var upcoming, past []models.Event
	for _, e := range events {
		if !q.Match(e) {
			continue
		}
		if e.Day().Before(start) {
			past = append(past, e)
		} else {
			upcoming = append(upcoming, e)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Day().Before(upcoming[j].Day()) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].Day().After(past[j].Day()) })

	return append(upcoming, past...)
}

// Page returns the first size*loads events and whether more remain.
func Page(events []models.Event, size, loads int) ([]models.Event, bool) {
	if len(events) == 0 {
		return events, false
	}
	if size <= 0 {
		size = len(events)
	}
	if loads < 1 {
		loads = 1
	}
	if loads > (len(events)+size-1)/size {
		return events, false
	}
	limit := size * loads
	if limit >= len(events) {
		return events, false
	}
	return events[:limit], true
}

// IsUpcoming reports whether e is dated today or later.
func IsUpcoming(e models.Event, today time.Time) bool {
	return !e.Day().Before(models.DateOf(today))
}

// Cities returns the distinct city names in alphabetical order.
func Cities(events []models.Event) []string {
	seen := map[string]string{}
	for _, e := range events {
		c := strings.TrimSpace(e.City)
		if c == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(c)]; !ok {
			seen[strings.ToLower(c)] = c
		}
	}
	out := make([]string, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
