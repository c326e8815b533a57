package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureError(t *testing.T) {
	f := NewFailure(ErrorCodeInsufficientFund, "not enough fund to emi bulk transaction")
	assert.Equal(t, "INSUFFICIENT_FUND: not enough fund to emi bulk transaction", f.Error())

	cause := errors.New("connection reset")
	wrapped := f.WithCause(cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, f.Cause, "WithCause must not mutate the receiver")
}

func TestFailureIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NewFailure(ErrorCodeBankAccountNotFound, "missing"))

	assert.ErrorIs(t, err, NewFailure(ErrorCodeBankAccountNotFound, ""))
	assert.NotErrorIs(t, err, NewFailure(ErrorCodeDatabaseError, ""))
}

func TestAsFailure(t *testing.T) {
	f, ok := AsFailure(fmt.Errorf("wrapped: %w", NewFailure(ErrorCodeDatabaseError, "Cannot get values")))
	require.True(t, ok)
	assert.Equal(t, ErrorCodeDatabaseError, f.Code)

	f, ok = AsFailure(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, ErrorCodeDatabaseError, f.Code)

	f, ok = AsFailure(nil)
	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestFailureWithContextCopies(t *testing.T) {
	base := NewFailure(ErrorCodeBankAccountNotFound, "missing")
	withCtx := base.WithContext(map[string]any{"iban": "FR10", "bic": "OIVU"})

	assert.Nil(t, base.Context)
	assert.Equal(t, "FR10", withCtx.Context["iban"])
}
