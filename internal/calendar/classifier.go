// Package calendar classifies dates as business or non-business days
// (días inhábiles) for the court: weekends, fixed annual holidays, recess
// intervals and user-configured one-off exceptions.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidArgument indicates a malformed date or rule input from the caller.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrConfiguration indicates a broken rule set. Surfaced at load time, or by
// NextBusinessDay when the configured rules leave no business day within the
// lookahead bound.
var ErrConfiguration = errors.New("calendar configuration error")

// DefaultMaxLookahead bounds NextBusinessDay. A longer unbroken run of
// non-business days is almost certainly a configuration bug, not a calendar.
const DefaultMaxLookahead = 30

// FixedHoliday is an annual month-day rule.
type FixedHoliday struct {
	Month time.Month
	Day   int
	Name  string
}

// RecessInterval is an inclusive [start, end] month-day range within a single
// calendar year. Cross-year intervals are not supported.
type RecessInterval struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
	Name       string
}

// Exception is a one-off configured non-business date.
type Exception struct {
	Date time.Time
	Name string
}

// Classification is the result of classifying one date.
type Classification struct {
	NonBusinessDay bool   `json:"is_non_business_day"`
	Reason         string `json:"reason,omitempty"`
}

// Classifier evaluates the rule set. The rule snapshot is read-only after
// construction.
type Classifier struct {
	holidays     []FixedHoliday
	recesses     []RecessInterval
	exceptions   map[string]string
	maxLookahead int
}

// MexicanStatutoryHolidays are the fixed días inhábiles observed by the TSJ.
func MexicanStatutoryHolidays() []FixedHoliday {
	return []FixedHoliday{
		{time.January, 1, "Año Nuevo"},
		{time.February, 5, "Día de la Constitución"},
		{time.March, 21, "Natalicio de Benito Juárez"},
		{time.May, 1, "Día del Trabajo"},
		{time.May, 5, "Batalla de Puebla"},
		{time.September, 16, "Día de la Independencia"},
		{time.November, 20, "Día de la Revolución"},
		{time.December, 25, "Navidad"},
	}
}

// NewClassifier validates the rule set and returns a ready classifier.
// Malformed recess intervals fail here, not at evaluation time.
func NewClassifier(holidays []FixedHoliday, recesses []RecessInterval, exceptions []Exception, maxLookahead int) (*Classifier, error) {
	if maxLookahead <= 0 {
		maxLookahead = DefaultMaxLookahead
	}

	for _, h := range holidays {
		if h.Month < time.January || h.Month > time.December || h.Day < 1 || h.Day > 31 {
			return nil, fmt.Errorf("%w: holiday %q has month-day %d-%d", ErrConfiguration, h.Name, h.Month, h.Day)
		}
	}
	for _, r := range recesses {
		if r.StartMonth < time.January || r.StartMonth > time.December ||
			r.EndMonth < time.January || r.EndMonth > time.December ||
			r.StartDay < 1 || r.StartDay > 31 || r.EndDay < 1 || r.EndDay > 31 {
			return nil, fmt.Errorf("%w: recess %q has invalid bounds", ErrConfiguration, r.Name)
		}
		if r.EndMonth < r.StartMonth || (r.EndMonth == r.StartMonth && r.EndDay < r.StartDay) {
			return nil, fmt.Errorf("%w: recess %q ends before it starts", ErrConfiguration, r.Name)
		}
	}

	excs := make(map[string]string, len(exceptions))
	for _, e := range exceptions {
		if e.Date.IsZero() {
			return nil, fmt.Errorf("%w: exception %q has no date", ErrConfiguration, e.Name)
		}
		excs[dayKey(e.Date)] = e.Name
	}

	return &Classifier{
		holidays:     holidays,
		recesses:     recesses,
		exceptions:   excs,
		maxLookahead: maxLookahead,
	}, nil
}

// Classify reports whether date is a non-business day. Rules are evaluated
// in precedence order so the reported reason is deterministic: weekend,
// fixed holiday, recess interval, configured exception.
func (c *Classifier) Classify(date time.Time) (Classification, error) {
	if date.IsZero() {
		return Classification{}, fmt.Errorf("%w: zero date", ErrInvalidArgument)
	}

	switch date.Weekday() {
	case time.Saturday:
		return Classification{NonBusinessDay: true, Reason: "Saturday"}, nil
	case time.Sunday:
		return Classification{NonBusinessDay: true, Reason: "Sunday"}, nil
	}

	for _, h := range c.holidays {
		if date.Month() == h.Month && date.Day() == h.Day {
			return Classification{NonBusinessDay: true, Reason: h.Name}, nil
		}
	}

	for _, r := range c.recesses {
		start := time.Date(date.Year(), r.StartMonth, r.StartDay, 0, 0, 0, 0, date.Location())
		end := time.Date(date.Year(), r.EndMonth, r.EndDay, 0, 0, 0, 0, date.Location())
		day := truncateDay(date)
		if !day.Before(start) && !day.After(end) {
			return Classification{NonBusinessDay: true, Reason: r.Name}, nil
		}
	}

	if name, ok := c.exceptions[dayKey(date)]; ok {
		return Classification{NonBusinessDay: true, Reason: name}, nil
	}

	return Classification{}, nil
}

// NextBusinessDay advances one calendar day at a time until Classify returns
// a business day, bounded by the configured lookahead.
func (c *Classifier) NextBusinessDay(date time.Time) (time.Time, error) {
	if date.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero date", ErrInvalidArgument)
	}

	day := truncateDay(date)
	for i := 0; i < c.maxLookahead; i++ {
		day = day.AddDate(0, 0, 1)
		cls, err := c.Classify(day)
		if err != nil {
			return time.Time{}, err
		}
		if !cls.NonBusinessDay {
			return day, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no business day within %d days of %s",
		ErrConfiguration, c.maxLookahead, date.Format("2006-01-02"))
}

// ParseRecessSpec parses "name=MM-DD..MM-DD" entries separated by commas.
func ParseRecessSpec(spec string) ([]RecessInterval, error) {
	var intervals []RecessInterval
	for _, entry := range splitSpec(spec) {
		name, rng, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: recess entry %q missing '='", ErrConfiguration, entry)
		}
		start, end, ok := strings.Cut(rng, "..")
		if !ok {
			return nil, fmt.Errorf("%w: recess entry %q missing '..'", ErrConfiguration, entry)
		}
		sm, sd, err := parseMonthDay(start)
		if err != nil {
			return nil, err
		}
		em, ed, err := parseMonthDay(end)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, RecessInterval{
			StartMonth: sm, StartDay: sd,
			EndMonth: em, EndDay: ed,
			Name: strings.TrimSpace(name),
		})
	}
	return intervals, nil
}

// ParseHolidaySpec parses "name=MM-DD" entries separated by commas.
func ParseHolidaySpec(spec string) ([]FixedHoliday, error) {
	var holidays []FixedHoliday
	for _, entry := range splitSpec(spec) {
		name, md, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: holiday entry %q missing '='", ErrConfiguration, entry)
		}
		m, d, err := parseMonthDay(md)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, FixedHoliday{Month: m, Day: d, Name: strings.TrimSpace(name)})
	}
	return holidays, nil
}

func splitSpec(spec string) []string {
	var out []string
	for _, part := range strings.Split(spec, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseMonthDay(s string) (time.Month, int, error) {
	t, err := time.Parse("01-02", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad month-day %q: %v", ErrConfiguration, s, err)
	}
	return t.Month(), t.Day(), nil
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
