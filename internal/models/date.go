package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, exchanged as YYYY-MM-DD.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	v, err := parseLooseDate(raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// parseLooseDate accepts a date or a datetime the backend may return.
func parseLooseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("date: unrecognised value %q", raw)
}

// ExpectedCompletion is the expected_completion_day field as found on the
// wire. New records always carry an absolute date; records written by older
// clients may carry a signed day offset from their creation date.
type ExpectedCompletion struct {
	Date   *Date
	Offset *int
}

func (e *ExpectedCompletion) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	*e = ExpectedCompletion{}
	if s == "null" || s == `""` {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		e.Offset = &n
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		// unknown shapes read as unset rather than failing the whole record
		return nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		e.Offset = &n
		return nil
	}
	if d, err := parseLooseDate(raw); err == nil {
		e.Date = &d
	}
	return nil
}

// Resolve returns the absolute expected date, interpreting a legacy offset
// relative to created.
func (e ExpectedCompletion) Resolve(created time.Time) *Date {
	if e.Date != nil {
		d := *e.Date
		return &d
	}
	if e.Offset != nil && !created.IsZero() {
		d := DateOf(created.In(time.Local)).AddDays(*e.Offset)
		return &d
	}
	return nil
}
