// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package vsync

import (
	"errors"
)

var (
	// ErrResourceExhausted is returned (wrapped) by Reactor.RegisterListener,
	// when MaxListeners distinct listeners are already tracked.
	ErrResourceExhausted = errors.New("vsync: resource exhausted")

	// ErrInvalidPendingLimit is returned by New if the pending limit is not
	// positive.
	ErrInvalidPendingLimit = errors.New("vsync: pending limit must be positive")
)

// ContractViolation is the panic value used when a caller (or collaborator)
// breaks an invariant of this package. It is not intended to be recovered.
type ContractViolation struct {
	// Cause is the underlying error, if any, e.g. from Registration.Schedule.
	Cause error
	// Op is the operation that detected the violation.
	Op string
	// Message describes the violation.
	Message string
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	msg := `vsync: contract violation: ` + e.Op
	if e.Message != `` {
		msg += `: ` + e.Message
	}
	if e.Cause != nil {
		msg += `: ` + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *ContractViolation) Unwrap() error {
	return e.Cause
}
