package types

import (
	"fmt"
	"net/http"
	"time"
)

type ErrorCode string

func (e ErrorCode) String() string {
	return string(e)
}

const (
	// InternalServiceError indicates an unexpected internal failure.
	InternalServiceError ErrorCode = "INTERNAL_SERVICE_ERROR"
	// ValidationFailedError indicates malformed or inconsistent input.
	ValidationFailedError ErrorCode = "VALIDATION_FAILED"
	// NotFound indicates an entity lookup miss.
	NotFound ErrorCode = "NOT_FOUND"
	// VerificationRequired indicates the wallet has not completed identity verification.
	VerificationRequired ErrorCode = "VERIFICATION_REQUIRED"
	// OnCooldown indicates the wallet claimed within the cooldown window.
	OnCooldown ErrorCode = "ON_COOLDOWN"
	// DisbursementFailed indicates the external transfer failed before any state
	// changed. Safe to retry from scratch.
	DisbursementFailed ErrorCode = "DISBURSEMENT_FAILED"
	// CommitFailed indicates the ledger commit failed after a confirmed
	// disbursement. Never retried automatically; requires operator reconciliation.
	CommitFailed ErrorCode = "COMMIT_FAILED"
	// InsufficientBalance indicates a balance mutation would go negative.
	InsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	// AlreadyStaked indicates a stake request for an item that is already staked.
	AlreadyStaked ErrorCode = "ALREADY_STAKED"
	// NotStaked indicates an unstake request for an item that is not staked.
	NotStaked ErrorCode = "NOT_STAKED"
	// NoPositions indicates a settlement request for an account without reward positions.
	NoPositions ErrorCode = "NO_POSITIONS"
)

// Error carries an HTTP-mappable status code and a machine-readable error code
// alongside the underlying error, so the excluded HTTP layer can render a
// user-facing message without inspecting error strings.
type Error struct {
	Err        error
	StatusCode int
	ErrorCode  ErrorCode

	// Remaining is set only for OnCooldown errors.
	Remaining time.Duration
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.ErrorCode.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(statusCode int, errorCode ErrorCode, err error) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Err:        err,
	}
}

func NewErrorWithMsg(statusCode int, errorCode ErrorCode, msg string) *Error {
	return NewError(statusCode, errorCode, fmt.Errorf("%s", msg))
}

func NewInternalServiceError(err error) *Error {
	return NewError(http.StatusInternalServerError, InternalServiceError, err)
}

func NewValidationFailedError(err error) *Error {
	return NewError(http.StatusBadRequest, ValidationFailedError, err)
}

func NewNotFoundError(err error) *Error {
	return NewError(http.StatusNotFound, NotFound, err)
}

func NewVerificationRequiredError() *Error {
	return NewErrorWithMsg(
		http.StatusForbidden,
		VerificationRequired,
		"identity verification required before claiming",
	)
}

// NewOnCooldownError reports how long until the wallet may claim again.
func NewOnCooldownError(remaining time.Duration) *Error {
	return &Error{
		StatusCode: http.StatusTooManyRequests,
		ErrorCode:  OnCooldown,
		Err:        fmt.Errorf("claim on cooldown, %s remaining", remaining.Round(time.Minute)),
		Remaining:  remaining,
	}
}

func NewDisbursementFailedError(err error) *Error {
	return NewError(http.StatusBadGateway, DisbursementFailed, err)
}

func NewCommitFailedError(err error) *Error {
	return NewError(http.StatusInternalServerError, CommitFailed, err)
}
