package adherence

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no zone attached. Day-offset arithmetic on
// scheduled windows must never shift across a DST transition, so dates
// are kept as plain calendar values and only combined with a wall time
// and location when an instant is needed.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf reduces an instant to its calendar day in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" value.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// DaysUntil returns the number of calendar days from d to o; negative if
// o precedes d.
func (d Date) DaysUntil(o Date) int {
	a := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	b := time.Date(o.Year, o.Month, o.Day, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (d Date) Before(o Date) bool { return d.DaysUntil(o) > 0 }
func (d Date) After(o Date) bool  { return d.DaysUntil(o) < 0 }
func (d Date) Equal(o Date) bool  { return d == o }

// At combines the date with a "15:04" wall time in loc. An empty wall
// time means midnight.
func (d Date) At(wallTime string, loc *time.Location) time.Time {
	hour, min := parseWallTime(wallTime)
	return time.Date(d.Year, d.Month, d.Day, hour, min, 0, 0, loc)
}

// EndOfDay returns the last nanosecond of the date in loc.
func (d Date) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 999999999, loc)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// parseWallTime tolerates missing or malformed times by defaulting to
// midnight; a bad wall time in schedule metadata is incomplete input,
// not an error.
func parseWallTime(s string) (hour, min int) {
	if s == "" {
		return 0, 0
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0
	}
	return hour, min
}

// minDate/maxDate treat the zero Date as "unset".
func minDate(a, b Date) Date {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

func maxDate(a, b Date) Date {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.After(a) {
		return b
	}
	return a
}
