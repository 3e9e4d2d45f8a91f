package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNetwork      = errors.New("backend unreachable")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrReference    = errors.New("invalid reference")
)

// PartialFailureError reports a multi-step workflow that stopped after at
// least one step had already been written to the backend.
type PartialFailureError struct {
	Workflow      string
	Completed     []string
	Step          string
	DefectID      int
	ImprovementID int
	Err           error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: step %q failed after [%s]: %v",
		e.Workflow, e.Step, strings.Join(e.Completed, ", "), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// AsPartialFailure unwraps err into a *PartialFailureError if it is one.
func AsPartialFailure(err error) (*PartialFailureError, bool) {
	var pf *PartialFailureError
	if errors.As(err, &pf) {
		return pf, true
	}
	return nil, false
}
