package repositories

import (
	"errors"
)

var (
	// ErrNotFound is returned when the gateway has no such record.
	ErrNotFound = errors.New("requested record not found")

	// ErrGateway is returned for any failed call to the remote gateway.
	// It wraps the transport or server error.
	ErrGateway = errors.New("gateway error")

	// ErrLocalPrinter is returned when the local print agent rejects a job.
	ErrLocalPrinter = errors.New("local printer error")
)
