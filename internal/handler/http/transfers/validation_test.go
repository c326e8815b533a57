package transfers_http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() BulkTransferRequest {
	return BulkTransferRequest{
		OrganizationName: "ACME Corp",
		OrganizationBIC:  "OIVUSCLQXXX",
		OrganizationIBAN: "FR10474608000002006107XXXXX",
		CreditTransfers: []CreditTransferRequest{{
			Amount:           "14.5",
			Currency:         "EUR",
			CounterpartyName: "Bip Bip",
			CounterpartyBIC:  "CRLYFRPPTOU",
			CounterpartyIBAN: "EE383680981021245685",
			Description:      "Wonderland/4410",
		}},
	}
}

func TestRequestValidator(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(r *BulkTransferRequest)
		field   string
		tag     string
		message string
	}{
		{
			name:    "missing organization name",
			mutate:  func(r *BulkTransferRequest) { r.OrganizationName = "" },
			field:   "organization_name",
			tag:     "required",
			message: "'organization_name' is required",
		},
		{
			name:    "short bic",
			mutate:  func(r *BulkTransferRequest) { r.OrganizationBIC = "O" },
			field:   "organization_bic",
			tag:     "min",
			message: "'organization_bic' must be at least 2 characters long",
		},
		{
			name:    "long organization bic",
			mutate:  func(r *BulkTransferRequest) { r.OrganizationBIC = "OIVUSCLQXXXX" },
			field:   "organization_bic",
			tag:     "max",
			message: "'organization_bic' must be at most 11 characters long",
		},
		{
			name:   "long organization iban",
			mutate: func(r *BulkTransferRequest) { r.OrganizationIBAN = strings.Repeat("F", 35) },
			field:  "organization_iban",
			tag:    "max",
		},
		{
			name:    "long counterparty bic",
			mutate:  func(r *BulkTransferRequest) { r.CreditTransfers[0].CounterpartyBIC = "CRLYFRPPTOUX" },
			field:   "credit_transfers[0].counterparty_bic",
			tag:     "max",
			message: "'credit_transfers[0].counterparty_bic' must be at most 11 characters long",
		},
		{
			name:   "long counterparty iban",
			mutate: func(r *BulkTransferRequest) { r.CreditTransfers[0].CounterpartyIBAN = strings.Repeat("E", 35) },
			field:  "credit_transfers[0].counterparty_iban",
			tag:    "max",
		},
		{
			name:   "long counterparty name",
			mutate: func(r *BulkTransferRequest) { r.CreditTransfers[0].CounterpartyName = strings.Repeat("B", 256) },
			field:  "credit_transfers[0].counterparty_name",
			tag:    "max",
		},
		{
			name:    "missing credit transfers",
			mutate:  func(r *BulkTransferRequest) { r.CreditTransfers = nil },
			field:   "credit_transfers",
			tag:     "required",
			message: "'credit_transfers' is required",
		},
		{
			name:    "comma decimal",
			mutate:  func(r *BulkTransferRequest) { r.CreditTransfers[0].Amount = "14,5" },
			field:   "credit_transfers[0].amount",
			tag:     "amount",
			message: "'credit_transfers[0].amount' must be a positive decimal amount with at most two decimals",
		},
		{
			name:   "negative amount",
			mutate: func(r *BulkTransferRequest) { r.CreditTransfers[0].Amount = "-1" },
			field:  "credit_transfers[0].amount",
			tag:    "amount",
		},
		{
			name:    "wrong currency",
			mutate:  func(r *BulkTransferRequest) { r.CreditTransfers[0].Currency = "eur" },
			field:   "credit_transfers[0].currency",
			tag:     "eq",
			message: `'credit_transfers[0].currency' must be "EUR"`,
		},
		{
			name:   "short description",
			mutate: func(r *BulkTransferRequest) { r.CreditTransfers[0].Description = "abc" },
			field:  "credit_transfers[0].description",
			tag:    "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Len(t, validationErr.Fields, 1)
			assert.Equal(t, tt.field, validationErr.Fields[0].Field)
			assert.Equal(t, tt.tag, validationErr.Fields[0].Tag)
			if tt.message != "" {
				assert.Equal(t, tt.message, validationErr.Fields[0].Message)
			}
		})
	}
}

func TestRequestValidator_Valid(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(validRequest()))
}

func TestRequestValidator_ColumnWidthsAccepted(t *testing.T) {
	v, err := NewRequestValidator()
	require.NoError(t, err)
	req := validRequest()
	req.OrganizationIBAN = strings.Repeat("F", 34)
	req.CreditTransfers[0].CounterpartyBIC = strings.Repeat("C", 11)
	req.CreditTransfers[0].CounterpartyName = strings.Repeat("B", 255)

	assert.NoError(t, v.Validate(req))
}
