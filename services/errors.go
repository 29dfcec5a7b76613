package services

import (
	"errors"
	"fmt"
	"log"

	"field-service-server/scheduling"
)

// Error kinds surfaced by the booking service. Callers use errors.Is.
var (
	ErrNotConfigured    = errors.New("scheduling not configured")
	ErrNotFound         = errors.New("not found")
	ErrSlotUnavailable  = errors.New("slot unavailable")
	ErrNotEditable      = errors.New("booking request can no longer be edited")
	ErrConcurrentUpdate = errors.New("booking request was modified concurrently")
	ErrDuplicateRequest = errors.New("duplicate booking request")
	ErrStorage          = errors.New("storage failure")

	// ErrInvalidTransition is the lifecycle's own sentinel, re-exported so
	// handlers only need this package.
	ErrInvalidTransition = scheduling.ErrInvalidTransition
)

// ValidationError is bad caller input. Reason is shown to the caller as is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError hides a collaborator failure behind ErrStorage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// passthrough lists the errors that already carry meaning for the caller.
var passthrough = []error{
	ErrNotConfigured,
	ErrNotFound,
	ErrSlotUnavailable,
	ErrNotEditable,
	ErrConcurrentUpdate,
	ErrDuplicateRequest,
	ErrInvalidTransition,
	ErrStorage,
}

// storageFailure keeps domain errors intact and wraps everything else as a
// logged StorageError.
func storageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range passthrough {
		if errors.Is(err, known) {
			return err
		}
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	log.Printf("❌ %s failed: %v", op, err)
	return &StorageError{Op: op, Err: err}
}
