package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CreditTransfer is one line item of a bulk transfer. Amount is a major-unit decimal string.
type CreditTransfer struct {
	Amount           string
	Currency         string
	CounterpartyName string
	CounterpartyBIC  string
	CounterpartyIBAN string
	Description      string
}

// BulkTransfer is a validated request to debit one organization account for many credit transfers.
type BulkTransfer struct {
	OrganizationName string
	OrganizationBIC  string
	OrganizationIBAN string
	CreditTransfers  []CreditTransfer
}

// TotalAmountCents sums every line item in decimal and converts the total to minor units.
func (b BulkTransfer) TotalAmountCents() (int64, error) {
	total := decimal.Zero
	for i, ct := range b.CreditTransfers {
		amount, err := ParseAmount(ct.Amount)
		if err != nil {
			return 0, fmt.Errorf("credit transfer %d: %w", i, err)
		}
		total = total.Add(amount)
	}
	return ToCents(total)
}

// Transactions expands the bulk transfer into one ledger row per line item, all owned by bankAccountID.
func (b BulkTransfer) Transactions(bankAccountID int64) ([]Transaction, error) {
	transactions := make([]Transaction, 0, len(b.CreditTransfers))
	for i, ct := range b.CreditTransfers {
		cents, err := ParseAmountCents(ct.Amount)
		if err != nil {
			return nil, fmt.Errorf("credit transfer %d: %w", i, err)
		}
		transactions = append(transactions, Transaction{
			CounterpartyName: ct.CounterpartyName,
			CounterpartyIBAN: ct.CounterpartyIBAN,
			CounterpartyBIC:  ct.CounterpartyBIC,
			AmountCents:      cents,
			AmountCurrency:   ct.Currency,
			BankAccountID:    bankAccountID,
			Description:      ct.Description,
		})
	}
	return transactions, nil
}
