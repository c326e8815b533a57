package transactions_repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
	"github.com/jonno85/tech-task/internal/util"
)

// insertChunkSize keeps each INSERT well below the 65535 bind parameter limit of postgres.
const (
	insertChunkSize  = 1000
	columnsPerInsert = 7
)

var (
	failureSave = domain.NewFailure(domain.ErrorCodeDatabaseError, "Cannot save into the db")
	failureRead = domain.NewFailure(domain.ErrorCodeDatabaseError, "Cannot get values")
)

type transactionRepository struct {
	db           *sql.DB
	outboxWriter OutboxWriter
	topic        string
	logger       *zap.Logger
	now          func() time.Time
}

// NewTransactionRepository builds the store. A nil outboxWriter disables event recording.
func NewTransactionRepository(db *sql.DB, outboxWriter OutboxWriter, topic string, logger *zap.Logger) *transactionRepository {
	return &transactionRepository{
		db:           db,
		outboxWriter: outboxWriter,
		topic:        topic,
		logger:       logger,
		now:          time.Now,
	}
}

func (r *transactionRepository) SaveAll(ctx context.Context, transactions []domain.Transaction) ([]domain.Transaction, error) {
	if len(transactions) == 0 {
		return []domain.Transaction{}, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("Cannot begin transaction to save transactions", zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	saved := make([]domain.Transaction, 0, len(transactions))
	for start := 0; start < len(transactions); start += insertChunkSize {
		end := min(start+insertChunkSize, len(transactions))
		chunk, err := r.insertChunk(ctx, tx, transactions[start:end])
		if err != nil {
			r.rollback(tx)
			r.logger.Error("Cannot save transactions into db",
				zap.Int("count", len(transactions)),
				zap.Int("chunk_start", start),
				zap.Error(err))
			return nil, failureSave.WithCause(err)
		}
		saved = append(saved, chunk...)
	}

	if r.outboxWriter != nil {
		if err := r.recordExecuted(ctx, tx, saved); err != nil {
			r.rollback(tx)
			r.logger.Error("Cannot record bulk transfer event", zap.Error(err))
			return nil, failureSave.WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Cannot commit transactions", zap.Int("count", len(transactions)), zap.Error(err))
		return nil, failureSave.WithCause(err)
	}

	return saved, nil
}

func (r *transactionRepository) insertChunk(ctx context.Context, tx *sql.Tx, chunk []domain.Transaction) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO transactions (counterparty_name, counterparty_iban, counterparty_bic, amount_cents, amount_currency, bank_account_id, description) VALUES `)
	args := make([]any, 0, len(chunk)*columnsPerInsert)
	for i, t := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 1; c <= columnsPerInsert; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*columnsPerInsert + c))
		}
		sb.WriteString(")")
		args = append(args, t.CounterpartyName, t.CounterpartyIBAN, t.CounterpartyBIC, t.AmountCents, t.AmountCurrency, t.BankAccountID, t.Description)
	}
	sb.WriteString(" RETURNING id")

	rows, err := tx.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transactions: %w", err)
	}
	defer rows.Close()

	saved := make([]domain.Transaction, 0, len(chunk))
	for rows.Next() {
		if len(saved) == len(chunk) {
			return nil, errors.New("insert returned more ids than rows")
		}
		t := chunk[len(saved)]
		if err := rows.Scan(&t.ID); err != nil {
			return nil, fmt.Errorf("failed to scan transaction id: %w", err)
		}
		saved = append(saved, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inserted transaction ids: %w", err)
	}
	if len(saved) != len(chunk) {
		return nil, fmt.Errorf("insert returned %d ids for %d rows", len(saved), len(chunk))
	}
	return saved, nil
}

func (r *transactionRepository) recordExecuted(ctx context.Context, tx *sql.Tx, saved []domain.Transaction) error {
	occurredAt := r.now().UTC()
	event := domain.NewBulkTransferExecutedEvent(util.GenerateUUID(), saved, occurredAt)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal bulk transfer event: %w", err)
	}

	aggregateID := strconv.FormatInt(event.BankAccountID, 10)
	return r.outboxWriter.CreateMessageTx(ctx, tx, &domain.OutboxMessage{
		ID:            event.EventID,
		AggregateID:   aggregateID,
		AggregateType: domain.AggregateTypeBankAccount,
		MessageType:   domain.MessageTypeBulkTransferExecuted,
		Topic:         r.topic,
		Key:           aggregateID,
		Payload:       payload,
		Status:        domain.OutboxStatusPending,
		CreatedAt:     occurredAt,
	})
}

func (r *transactionRepository) GetAll(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, counterparty_name, counterparty_iban, counterparty_bic, amount_cents, amount_currency, bank_account_id, description
		FROM transactions
		ORDER BY id ASC
	`)
	if err != nil {
		r.logger.Error("Cannot get transactions", zap.Error(err))
		return nil, failureRead.WithCause(err)
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Cannot scan transaction", zap.Error(err))
			return nil, failureRead.WithCause(err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating transactions", zap.Error(err))
		return nil, failureRead.WithCause(err)
	}
	return transactions, nil
}

// GetByName returns the first transaction sent to the given counterparty.
func (r *transactionRepository) GetByName(ctx context.Context, name string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, counterparty_name, counterparty_iban, counterparty_bic, amount_cents, amount_currency, bank_account_id, description
		FROM transactions
		WHERE counterparty_name = $1
		ORDER BY id ASC
		LIMIT 1
	`, name)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewFailure(domain.ErrorCodeTransactionNotFound, "There is no transaction that matches this name").
				WithContext(map[string]any{"name": name})
		}
		r.logger.Error("Cannot get transaction by name", zap.String("name", name), zap.Error(err))
		return nil, failureRead.WithCause(err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := s.Scan(
		&t.ID,
		&t.CounterpartyName,
		&t.CounterpartyIBAN,
		&t.CounterpartyBIC,
		&t.AmountCents,
		&t.AmountCurrency,
		&t.BankAccountID,
		&t.Description,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *transactionRepository) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		r.logger.Error("Cannot rollback transactions insert", zap.Error(err))
	}
}
