package domain

const CurrencyEUR = "EUR"

// Transaction is an outbound ledger entry created by a committed bulk transfer.
// AmountCents is always positive.
type Transaction struct {
	ID               int64
	CounterpartyName string
	CounterpartyIBAN string
	CounterpartyBIC  string
	AmountCents      int64
	AmountCurrency   string
	BankAccountID    int64
	Description      string
}
