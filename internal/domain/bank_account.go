package domain

// BankAccount is an organization account debited by bulk transfers.
// BalanceCents is always expressed in minor currency units.
type BankAccount struct {
	ID               int64
	OrganizationName string
	BalanceCents     int64
	IBAN             string
	BIC              string
}
