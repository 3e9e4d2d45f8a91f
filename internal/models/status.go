package models

import "encoding/json"

// Status is the canonical band of a defect's raw status token.
type Status int

const (
	StatusUnset Status = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
	StatusWaiting
	StatusPendingConfirmation
)

// wire tokens exchanged with the REST backend
const (
	wireInProgress          = "改善中"
	wireCompleted           = "已完成"
	wireCancelled           = "已取消"
	wireWaiting             = "等待中"
	wirePendingConfirmation = "待確認"
	labelUnset              = "未設定"
)

var statusMarkers = map[Status]string{
	StatusInProgress:          "🟡",
	StatusCompleted:           "🟢",
	StatusCancelled:           "🔴",
	StatusWaiting:             "⚪",
	StatusPendingConfirmation: "🟣",
	StatusUnset:               "🟤",
}

var statusNames = map[Status]string{
	StatusInProgress:          "IN_PROGRESS",
	StatusCompleted:           "COMPLETED",
	StatusCancelled:           "CANCELLED",
	StatusWaiting:             "WAITING",
	StatusPendingConfirmation: "PENDING_CONFIRMATION",
	StatusUnset:               "UNSET",
}

// ClassifyStatus maps a raw status token to its band. Anything outside the
// fixed vocabulary is StatusUnset.
func ClassifyStatus(raw string) Status {
	switch raw {
	case wireCompleted:
		return StatusCompleted
	case wireInProgress:
		return StatusInProgress
	case wireCancelled:
		return StatusCancelled
	case wireWaiting:
		return StatusWaiting
	case wirePendingConfirmation:
		return StatusPendingConfirmation
	default:
		return StatusUnset
	}
}

// ParseStatusPtr is ClassifyStatus for an optional token.
func ParseStatusPtr(raw *string) Status {
	if raw == nil {
		return StatusUnset
	}
	return ClassifyStatus(*raw)
}

// Wire returns the token the backend stores. StatusUnset has no token.
func (s Status) Wire() string {
	switch s {
	case StatusInProgress:
		return wireInProgress
	case StatusCompleted:
		return wireCompleted
	case StatusCancelled:
		return wireCancelled
	case StatusWaiting:
		return wireWaiting
	case StatusPendingConfirmation:
		return wirePendingConfirmation
	default:
		return ""
	}
}

// Label is the human readable token, including one for StatusUnset.
func (s Status) Label() string {
	if w := s.Wire(); w != "" {
		return w
	}
	return labelUnset
}

func (s Status) Marker() string {
	if m, ok := statusMarkers[s]; ok {
		return m
	}
	return statusMarkers[StatusUnset]
}

// Display is marker and label joined, as shown in list views.
func (s Status) Display() string {
	return s.Marker() + " " + s.Label()
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return statusNames[StatusUnset]
}

// IsTerminal reports whether no further lifecycle event is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseStatusName accepts the enum name (IN_PROGRESS, ...) or a wire token.
func ParseStatusName(v string) (Status, bool) {
	for s, n := range statusNames {
		if n == v {
			return s, true
		}
	}
	s := ClassifyStatus(v)
	if s == StatusUnset && v != labelUnset {
		return StatusUnset, false
	}
	return s, true
}

func (s Status) MarshalJSON() ([]byte, error) {
	if s == StatusUnset {
		return []byte("null"), nil
	}
	return json.Marshal(s.Wire())
}

// UnmarshalJSON never fails on unknown tokens; they decode to StatusUnset.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = StatusUnset
		return nil
	}
	*s = ParseStatusPtr(raw)
	return nil
}
