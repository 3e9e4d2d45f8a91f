package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	s := InitialStatus
	require.Equal(t, StatusInProgress, s)

	s, err := Transition(s, EventRepairSubmitted)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingConfirmation, s)

	s, err = Transition(s, EventReject)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	s, err = Transition(s, EventRepairSubmitted)
	require.NoError(t, err)
	s, err = Transition(s, EventConfirm)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s)
}

func TestTransition_RepairGuard(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusWaiting, StatusPendingConfirmation, StatusUnset} {
		to, err := Transition(from, EventRepairSubmitted)
		assert.True(t, errors.Is(err, ErrInvalidState), "from=%s", from)
		assert.Equal(t, from, to)
	}
}

func TestTransition_Cancel(t *testing.T) {
	for _, from := range []Status{StatusInProgress, StatusPendingConfirmation, StatusWaiting, StatusUnset} {
		to, err := Transition(from, EventCancel)
		require.NoError(t, err, "from=%s", from)
		assert.Equal(t, StatusCancelled, to)
	}
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		_, err := Transition(from, EventCancel)
		assert.ErrorIs(t, err, ErrInvalidState)
	}
}

func TestTransition_TerminalAcceptsNothing(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		assert.Empty(t, AllowedEvents(from))
		for _, ev := range []Event{EventSubmit, EventConfirm, EventReject, EventHold, EventResume} {
			_, err := Transition(from, ev)
			assert.ErrorIs(t, err, ErrInvalidState)
		}
	}
}

func TestTransition_ConfirmOnlyFromPending(t *testing.T) {
	_, err := Transition(StatusInProgress, EventConfirm)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = Transition(StatusInProgress, EventSubmit)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAllowedEvents(t *testing.T) {
	assert.Equal(t, []Event{EventRepairSubmitted, EventHold, EventCancel}, AllowedEvents(StatusInProgress))
	assert.Equal(t, []Event{EventConfirm, EventReject, EventCancel}, AllowedEvents(StatusPendingConfirmation))
	assert.Equal(t, []Event{EventResume, EventCancel}, AllowedEvents(StatusWaiting))
}
