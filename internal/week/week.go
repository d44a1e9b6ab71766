// Package week implements the YYYY-WNN week identifiers used to slice
// message history. Week 1 starts on the first Monday on or after January 1
// (UTC), and every week spans seven days from that Monday.
package week

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// ErrInvalidWeekIdentifier is returned for ids that are not YYYY-WNN.
var ErrInvalidWeekIdentifier = errors.New("invalid week identifier")

var idPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

const (
	day  = 24 * time.Hour
	span = 7 * day
)

// Week is a parsed week identifier.
type Week struct {
	Year   int
	Number int
}

// Parse parses a YYYY-WNN identifier with NN in 01..53.
func Parse(id string) (Week, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return Week{}, fmt.Errorf("%w: %q (expected YYYY-WNN)", ErrInvalidWeekIdentifier, id)
	}
	year, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	if num < 1 || num > 53 {
		return Week{}, fmt.Errorf("%w: %q (week must be 01-53)", ErrInvalidWeekIdentifier, id)
	}
	return Week{Year: year, Number: num}, nil
}

// String formats the week as YYYY-WNN.
func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Number)
}

// Start is the Monday 00:00 UTC that opens the week.
func (w Week) Start() time.Time {
	return firstMonday(w.Year).Add(time.Duration(w.Number-1) * span)
}

// End is the exclusive end of the week, seven days after Start.
func (w Week) End() time.Time {
	return w.Start().Add(span)
}

// Contains reports whether start <= t < end.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start()) && t.Before(w.End())
}

// firstMonday returns the first Monday on or after January 1 of year.
func firstMonday(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	offset := (8 - int(jan1.Weekday())) % 7
	return jan1.AddDate(0, 0, offset)
}

// For returns the week whose span contains t. Days before a year's first
// Monday belong to the last week of the previous year.
func For(t time.Time) Week {
	t = t.UTC()
	year := t.Year()
	start := firstMonday(year)
	if t.Before(start) {
		year--
		start = firstMonday(year)
	}
	n := int(t.Sub(start)/span) + 1
	return Week{Year: year, Number: n}
}

// FilterToWeek returns the messages whose timestamp falls within the week
// identified by id. An empty result is not an error.
func FilterToWeek(messages []normalize.Message, id string) ([]normalize.Message, error) {
	w, err := Parse(id)
	if err != nil {
		return nil, err
	}
	return w.Filter(messages), nil
}

// Filter keeps the messages that fall inside w, preserving order.
func (w Week) Filter(messages []normalize.Message) []normalize.Message {
	start, end := w.Start(), w.End()
	out := make([]normalize.Message, 0)
	for _, m := range messages {
		if !m.Timestamp.Before(start) && m.Timestamp.Before(end) {
			out = append(out, m)
		}
	}
	return out
}

// Weeks returns the sorted distinct week ids covering times. Zero times are
// ignored.
func Weeks(times []time.Time) []string {
	seen := make(map[string]bool)
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		seen[For(t).String()] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FilterAlerts keeps the alerts that fall inside w.
func (w Week) FilterAlerts(alerts []normalize.Alert) []normalize.Alert {
	out := make([]normalize.Alert, 0)
	for _, a := range alerts {
		if w.Contains(a.Timestamp) {
			out = append(out, a)
		}
	}
	return out
}
