package domain

import "time"

// BulkTransferExecutedEvent is published once the transactions of a bulk transfer are committed.
type BulkTransferExecutedEvent struct {
	EventID          string    `json:"event_id"`
	BankAccountID    int64     `json:"bank_account_id"`
	TransactionIDs   []int64   `json:"transaction_ids"`
	TransactionCount int       `json:"transaction_count"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Currency         string    `json:"currency"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewBulkTransferExecutedEvent summarizes a committed batch. All rows share one bank account.
func NewBulkTransferExecutedEvent(eventID string, transactions []Transaction, occurredAt time.Time) BulkTransferExecutedEvent {
	event := BulkTransferExecutedEvent{
		EventID:          eventID,
		TransactionIDs:   make([]int64, 0, len(transactions)),
		TransactionCount: len(transactions),
		Currency:         CurrencyEUR,
		OccurredAt:       occurredAt,
	}
	for _, t := range transactions {
		event.BankAccountID = t.BankAccountID
		event.TransactionIDs = append(event.TransactionIDs, t.ID)
		event.TotalAmountCents += t.AmountCents
		if t.AmountCurrency != "" {
			event.Currency = t.AmountCurrency
		}
	}
	return event
}
