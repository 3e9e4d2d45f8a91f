package models

import (
	"strconv"
	"strings"
	"time"
)

// Urgency is the band derived from the days remaining to a defect's
// expected completion date. It is never stored.
type Urgency int

const (
	UrgencyUnknown Urgency = iota
	UrgencyOverdue
	UrgencyUrgent
	UrgencyUpcoming
	UrgencyNormal
)

const (
	urgentWindowDays   = 7
	upcomingWindowDays = 14
)

type urgencyDisplay struct {
	name   string
	marker string
	label  string
}

var urgencyDisplays = map[Urgency]urgencyDisplay{
	UrgencyOverdue:  {"OVERDUE", "🔴", "0日內"},
	UrgencyUrgent:   {"URGENT", "🟠", "7日內"},
	UrgencyUpcoming: {"UPCOMING", "🟡", "14日內"},
	UrgencyNormal:   {"NORMAL", "🟢", "14日以上"},
	UrgencyUnknown:  {"UNKNOWN", "⚪", "未設定"},
}

// ClassifyUrgency maps a signed day delta to its band; nil is UrgencyUnknown.
func ClassifyUrgency(days *int) Urgency {
	if days == nil {
		return UrgencyUnknown
	}
	return classifyDays(*days)
}

// ClassifyUrgencyString parses a day delta and classifies it. Input that is
// not an integer is UrgencyUnknown.
func ClassifyUrgencyString(raw string) Urgency {
	d, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return UrgencyUnknown
	}
	return classifyDays(d)
}

func classifyDays(d int) Urgency {
	switch {
	case d <= 0:
		return UrgencyOverdue
	case d <= urgentWindowDays:
		return UrgencyUrgent
	case d <= upcomingWindowDays:
		return UrgencyUpcoming
	default:
		return UrgencyNormal
	}
}

// DaysRemaining is the signed number of calendar days from today's local
// midnight to the expected date. Negative means overdue; it is not clamped.
func DaysRemaining(expected Date, today time.Time) int {
	t := today.In(time.Local)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(expected.Year, expected.Month, expected.Day, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// UrgencyFor classifies an optional expected date against today.
func UrgencyFor(expected *Date, today time.Time) Urgency {
	if expected == nil || expected.IsZero() {
		return UrgencyUnknown
	}
	d := DaysRemaining(*expected, today)
	return ClassifyUrgency(&d)
}

func (u Urgency) display() urgencyDisplay {
	if d, ok := urgencyDisplays[u]; ok {
		return d
	}
	return urgencyDisplays[UrgencyUnknown]
}

func (u Urgency) String() string { return u.display().name }
func (u Urgency) Marker() string { return u.display().marker }
func (u Urgency) Label() string  { return u.display().label }

// Display is marker and label joined, as shown in list views.
func (u Urgency) Display() string { return u.Marker() + " " + u.Label() }

// Rank orders bands from least to most lenient; UrgencyUnknown sorts last.
func (u Urgency) Rank() int {
	if u == UrgencyUnknown {
		return int(UrgencyNormal) + 1
	}
	return int(u)
}

// ParseUrgencyName accepts the band names used in query strings.
func ParseUrgencyName(v string) (Urgency, bool) {
	for u, d := range urgencyDisplays {
		if strings.EqualFold(d.name, v) {
			return u, true
		}
	}
	return UrgencyUnknown, false
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}
