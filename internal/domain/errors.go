package domain

import (
	"errors"
	"fmt"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Error codes rendered in the "error" field of JSON error bodies.
const (
	CodeUnauthenticated   = "unauthenticated"
	CodeForbidden         = "forbidden"
	CodeNotFound          = "not_found"
	CodeBettingClosed     = "betting_closed"
	CodePriceUnavailable  = "price_unavailable"
	CodeInvalidSelection  = "invalid_selection"
	CodeStakeOutOfRange   = "stake_out_of_range"
	CodeInsufficientFunds = "insufficient_funds"
	CodeTooSoon           = "too_soon"
	CodeValidation        = "validation_error"
	CodeConflict          = "conflict"
	CodeRateLimited       = "rate_limited"
	CodeAccountLocked     = "account_locked"
	CodeStorageFailure    = "storage_failure"
	CodeUnknown           = "unknown"
)

// Standard domain error constructors.

func ErrUnauthenticated(msg string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, Status: 403}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrBettingClosed() *AppError {
	return &AppError{Code: CodeBettingClosed, Message: "betting closed", Status: 400}
}

func ErrPriceUnavailable(msg string) *AppError {
	return &AppError{Code: CodePriceUnavailable, Message: msg, Status: 400}
}

func ErrInvalidSelection(market Market, side Side) *AppError {
	return &AppError{
		Code:    CodeInvalidSelection,
		Message: fmt.Sprintf("side %q is not valid for market %q", side, market),
		Status:  400,
	}
}

func ErrStakeOutOfRange(min, max int64) *AppError {
	return &AppError{
		Code:    CodeStakeOutOfRange,
		Message: fmt.Sprintf("stake must be between %d and %d cents", min, max),
		Status:  400,
	}
}

func ErrInsufficientFunds() *AppError {
	return &AppError{Code: CodeInsufficientFunds, Message: "insufficient funds", Status: 400}
}

func ErrTooSoon(msg string) *AppError {
	return &AppError{Code: CodeTooSoon, Message: msg, Status: 400}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrAccountLocked(msg string) *AppError {
	return &AppError{Code: CodeAccountLocked, Message: msg, Status: 429}
}

// ErrStorage wraps a persistence failure. Nothing the caller can correct.
func ErrStorage(msg string, cause error) *AppError {
	return &AppError{Code: CodeStorageFailure, Message: msg, Status: 500, Cause: cause}
}

func ErrUnknown(msg string, cause error) *AppError {
	return &AppError{Code: CodeUnknown, Message: msg, Status: 500, Cause: cause}
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
