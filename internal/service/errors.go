package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/storage"
)

var (
	// ErrUnauthorized is returned when the caller has no resolved identity.
	ErrUnauthorized = errors.New("authentication required")
	// ErrNotFound is returned when the identity has no user row, or a
	// referenced record does not belong to the caller.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited is returned when the guard denies a request for rate.
	ErrRateLimited = errors.New("too many requests, please try again later")
	// ErrBlocked is returned when the guard denies a request for any other reason.
	ErrBlocked = errors.New("request blocked")
)

// StoreError is a store failure that survived the retry policy.
type StoreError struct {
	Op        string
	Err       error
	Transient bool
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// storeError classifies err returned from a retried store operation.
// Service-level errors pass through; storage.ErrNotFound becomes ErrNotFound.
func storeError(isTransient func(error) bool, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidInput),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	}
	return &StoreError{Op: op, Err: err, Transient: isTransient(err)}
}

// connectError maps a service error onto a Connect error code. Store
// details are not exposed to the caller.
func connectError(err error) error {
	var se *StoreError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrRateLimited):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, ErrBlocked):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.As(err, &se) && se.Transient:
		return connect.NewError(connect.CodeUnavailable, fmt.Errorf("failed to %s: database temporarily unavailable", se.Op))
	case errors.As(err, &se):
		return connect.NewError(connect.CodeInternal, fmt.Errorf("failed to %s", se.Op))
	}
	return connect.NewError(connect.CodeInternal, err)
}
