package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

// Store codes.
const (
	ErrorCodeBankAccountNotFound      ErrorCode = "BANK_ACCOUNT_NOT_FOUND"
	ErrorCodeBankAccountAlreadyExists ErrorCode = "BANK_ACCOUNT_ALREADY_EXISTS"
	ErrorCodeTransactionNotFound      ErrorCode = "TRANSACTION_NOT_FOUND"
	ErrorCodeDatabaseError            ErrorCode = "DATABASE_ERROR"
)

// Bulk transfer codes.
const (
	ErrorCodeBankAccountNotExist         ErrorCode = "BANK_ACCOUNT_NOT_EXIST"
	ErrorCodeInsufficientFund            ErrorCode = "INSUFFICIENT_FUND"
	ErrorCodeInvalidAmount               ErrorCode = "INVALID_AMOUNT"
	ErrorCodeHoldFundsBankAccount        ErrorCode = "ERROR_HOLD_FUNDS_BANK_ACCOUNT"
	ErrorCodeRecoverHoldFundsBankAccount ErrorCode = "ERROR_RECOVER_HOLD_FUNDS_BANK_ACCOUNT"
)

// Failure is the failed outcome of a store or transfer operation.
// Cause is kept for logs and errors.Is, it is never rendered to clients.
type Failure struct {
	Code    ErrorCode
	Reason  string
	Context map[string]any
	Cause   error
}

func NewFailure(code ErrorCode, reason string) *Failure {
	return &Failure{Code: code, Reason: reason}
}

// WithContext returns a copy of f carrying the given diagnostic context.
func (f *Failure) WithContext(ctx map[string]any) *Failure {
	cp := *f
	cp.Context = ctx
	return &cp
}

// WithCause returns a copy of f wrapping err.
func (f *Failure) WithCause(err error) *Failure {
	cp := *f
	cp.Cause = err
	return &cp
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Reason, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

// Is matches any Failure carrying the same code, so sentinel failures work with errors.Is.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Code == f.Code
}

// AsFailure extracts the Failure from err. Errors that are not failures are
// reported as DATABASE_ERROR so callers always get a code.
func AsFailure(err error) (*Failure, bool) {
	if err == nil {
		return nil, false
	}
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return NewFailure(ErrorCodeDatabaseError, err.Error()).WithCause(err), false
}
