package outbox_repo

import (
	"context"

	"github.com/jonno85/tech-task/internal/domain"
)

// OutboxRepository works on whatever Querier it is given, so every call can
// join the caller's storage transaction.
type OutboxRepository interface {
	CreateMessageTx(ctx context.Context, querier domain.Querier, msg *domain.OutboxMessage) error
	GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, querier domain.Querier, ids []string) error
}
