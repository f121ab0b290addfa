package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the workflows. Callers wrap them with context and
// the API layer maps them to status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyVerified   = errors.New("already verified")
	ErrNGOWalletMissing  = errors.New("ngo wallet address not found")
	ErrValidation        = errors.New("validation failed")
	ErrTransferFailed    = errors.New("transfer failed")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrAlreadyRecorded   = errors.New("donation already recorded")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError names the input that was rejected
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError is returned when the transfer went through but the record
// could not be written. The transfer must not be retried, only the write.
type PersistenceError struct {
	TxID string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("funds moved in transaction %s, record not saved: %v", e.TxID, e.Err)
}

// Unwrap exposes both ErrPersistenceFailed and the store error
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailed, e.Err}
}

// TransferError is returned when a transfer was broadcast but never seen
// confirmed. It may still land, so the client must check TxID before sending
// again.
type TransferError struct {
	TxID string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer failed: transaction %s not confirmed: %v", e.TxID, e.Err)
}

// Unwrap exposes both ErrTransferFailed and the bridge error
func (e *TransferError) Unwrap() []error {
	return []error{ErrTransferFailed, e.Err}
}
