package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountCents(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    int64
		wantErr error
	}{
		{name: "integer", amount: "61238", want: 6123800},
		{name: "one fractional digit", amount: "14.5", want: 1450},
		{name: "two fractional digits", amount: "0.01", want: 1},
		{name: "trailing zeros beyond cents", amount: "10.500", want: 1050},
		{name: "surrounding spaces", amount: " 999 ", want: 99900},
		{name: "sub cent", amount: "0.001", wantErr: ErrSubCentAmount},
		{name: "zero", amount: "0", wantErr: ErrNonPositiveAmount},
		{name: "negative", amount: "-3", wantErr: ErrNonPositiveAmount},
		{name: "not a number", amount: "abc", wantErr: ErrMalformedAmount},
		{name: "empty", amount: "", wantErr: ErrMalformedAmount},
		{name: "overflow", amount: "92233720368547758.08", wantErr: ErrAmountOverflow},
		{name: "exponent notation", amount: "1.5e2", want: 15000},
		{name: "huge exponent", amount: "1e100000000", wantErr: ErrAmountOverflow},
		{name: "huge negative exponent", amount: "1e-100000000", wantErr: ErrSubCentAmount},
		{name: "too long", amount: "1" + strings.Repeat("0", 40), wantErr: ErrMalformedAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountCents(tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToCentsDoesNotRound(t *testing.T) {
	_, err := ToCents(decimal.RequireFromString("1.005"))
	assert.ErrorIs(t, err, ErrSubCentAmount)

	cents, err := ToCents(decimal.RequireFromString("62251.5"))
	require.NoError(t, err)
	assert.Equal(t, int64(6225150), cents)
}

func TestParseAmountCentsRejectsExtremeExponentsQuickly(t *testing.T) {
	for _, amount := range []string{"1e100000000", "1e-100000000", "9e999999999", "1E-999999999"} {
		start := time.Now()
		_, err := ParseAmountCents(amount)
		elapsed := time.Since(start)

		assert.Error(t, err, amount)
		assert.Less(t, elapsed, 100*time.Millisecond, amount)
	}
}

func TestToCentsBoundsExponent(t *testing.T) {
	_, err := ToCents(decimal.New(1, 1_000_000))
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = ToCents(decimal.New(1, -1_000_000))
	assert.ErrorIs(t, err, ErrSubCentAmount)

	cents, err := ToCents(decimal.New(0, 1_000_000))
	require.NoError(t, err)
	assert.Zero(t, cents)
}
