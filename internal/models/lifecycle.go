package models

import "fmt"

// Event is something that happens to a defect and may move its status.
type Event string

const (
	EventSubmit          Event = "submit"
	EventRepairSubmitted Event = "repair_submitted"
	EventConfirm         Event = "confirm"
	EventReject          Event = "reject"
	EventCancel          Event = "cancel"
	EventHold            Event = "hold"
	EventResume          Event = "resume"
)

type transitionKey struct {
	from  Status
	event Event
}

var transitions = map[transitionKey]Status{
	{StatusInProgress, EventRepairSubmitted}:  StatusPendingConfirmation,
	{StatusPendingConfirmation, EventConfirm}: StatusCompleted,
	{StatusPendingConfirmation, EventReject}:  StatusInProgress,
	{StatusInProgress, EventHold}:             StatusWaiting,
	{StatusWaiting, EventResume}:              StatusInProgress,
	{StatusInProgress, EventCancel}:           StatusCancelled,
	{StatusPendingConfirmation, EventCancel}:  StatusCancelled,
	{StatusWaiting, EventCancel}:              StatusCancelled,
	{StatusUnset, EventCancel}:                StatusCancelled,
}

var eventOrder = []Event{EventRepairSubmitted, EventConfirm, EventReject, EventHold, EventResume, EventCancel}

// InitialStatus is the status every newly submitted defect starts in.
const InitialStatus = StatusInProgress

// Transition returns the status reached by applying ev to a defect in from.
// EventSubmit applies only to a defect that does not exist yet; use
// InitialStatus for it.
func Transition(from Status, ev Event) (Status, error) {
	if to, ok := transitions[transitionKey{from, ev}]; ok {
		return to, nil
	}
	if from.IsTerminal() {
		return from, fmt.Errorf("%w: %s is final, cannot %s", ErrInvalidState, from, ev)
	}
	return from, fmt.Errorf("%w: cannot %s a defect in %s", ErrInvalidState, ev, from)
}

// AllowedEvents lists the events accepted from a status, in a stable order.
func AllowedEvents(from Status) []Event {
	var out []Event
	for _, ev := range eventOrder {
		if _, ok := transitions[transitionKey{from, ev}]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// ParseEvent accepts the review events exposed over HTTP.
func ParseEvent(v string) (Event, bool) {
	for _, ev := range eventOrder {
		if string(ev) == v {
			return ev, true
		}
	}
	return "", false
}
