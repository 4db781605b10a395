package services

import "errors"

var (
	ErrPrintConfiguration = errors.New("print configuration error")
	ErrNoActiveOrder      = errors.New("no active order found for this table")
	ErrPrintExecution     = errors.New("failed to print order")
	ErrPrintInProgress    = errors.New("table is already printing")
	ErrProfileNotLoaded   = errors.New("POS profile not loaded yet")
	ErrTableNotFound      = errors.New("table is not in the displayed room")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrSessionValidation  = errors.New("session data validation error")
)

// PrintExecutionError is a failed render, submit or mark step.
// It matches ErrPrintExecution and unwraps to the step's error.
type PrintExecutionError struct {
	Step string
	Err  error
}

func (e *PrintExecutionError) Error() string {
	if e.Err == nil {
		return ErrPrintExecution.Error()
	}
	return e.Err.Error()
}

func (e *PrintExecutionError) Is(target error) bool {
	return target == ErrPrintExecution
}

func (e *PrintExecutionError) Unwrap() error {
	return e.Err
}
