package transactions_repo

import (
	"context"

	"github.com/jonno85/tech-task/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go TransactionRepository
type TransactionRepository interface {
	// SaveAll inserts the batch in one storage transaction: every row is committed or none is.
	SaveAll(ctx context.Context, transactions []domain.Transaction) ([]domain.Transaction, error)
	GetAll(ctx context.Context) ([]domain.Transaction, error)
	GetByName(ctx context.Context, name string) (*domain.Transaction, error)
}

// OutboxWriter records an event inside the caller's storage transaction.
type OutboxWriter interface {
	CreateMessageTx(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error
}
