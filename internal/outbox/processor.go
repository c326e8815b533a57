package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/domain"
	kafka_infra "github.com/jonno85/tech-task/internal/infrastructure/kafka"
)

type OutboxRepository interface {
	GetPendingMessages(ctx context.Context, querier domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, querier domain.Querier, ids []string) error
}

type ProcessorConfig struct {
	// DefaultTopic is used for messages stored without a topic.
	DefaultTopic     string
	PollInterval     time.Duration
	PollTimeout      time.Duration
	BatchSize        int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func DefaultProcessorConfig(topic string) ProcessorConfig {
	return ProcessorConfig{
		DefaultTopic:     topic,
		PollInterval:     time.Second,
		PollTimeout:      500 * time.Millisecond,
		BatchSize:        100,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Processor relays pending outbox messages to Kafka. A Kafka outage opens the
// circuit breaker and messages stay PENDING until a later poll succeeds.
type Processor struct {
	db         *sql.DB
	outboxRepo OutboxRepository
	producer   kafka_infra.Producer
	breaker    *gobreaker.CircuitBreaker
	cfg        ProcessorConfig
	logger     *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewProcessor(
	db *sql.DB,
	outboxRepo OutboxRepository,
	producer kafka_infra.Producer,
	cfg ProcessorConfig,
	logger *zap.Logger,
) *Processor {
	p := &Processor{
		db:         db,
		outboxRepo: outboxRepo,
		producer:   producer,
		cfg:        cfg,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-outbox",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return p
}

func (p *Processor) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.logger.Info("Starting outbox processor",
			zap.Duration("poll_interval", p.cfg.PollInterval),
			zap.Int("batch_size", p.cfg.BatchSize))
		go p.run(ctx)
	})
}

func (p *Processor) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox processor context done")
			return
		case <-p.stop:
			p.logger.Info("Outbox processor stopped")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error("Failed to process outbox batch", zap.Error(err))
			}
		}
	}
}

// Stop ends the polling loop and waits for the batch in flight.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("Signaling outbox processor to stop...")
		close(p.stop)
	})
	started := true
	p.startOnce.Do(func() { started = false })
	if started {
		<-p.done
	}
}

// ProcessBatch publishes up to BatchSize pending messages in creation order and
// marks the published prefix as SENT. It stops at the first publish failure so
// per-aggregate ordering is kept.
func (p *Processor) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.logger.Error("Failed to rollback outbox transaction", zap.Error(rbErr))
		}
	}()

	queryCtx, cancel := context.WithTimeout(ctx, p.cfg.PollTimeout)
	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, tx, p.cfg.BatchSize)
	cancel()
	if err != nil {
		return 0, err
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found")
		return 0, nil
	}

	sent := make([]string, 0, len(messages))
	var publishErr error
	for _, msg := range messages {
		if publishErr = p.publish(ctx, msg); publishErr != nil {
			break
		}
		sent = append(sent, msg.ID)
	}

	if len(sent) > 0 {
		if err := p.outboxRepo.MarkMessagesAsSent(ctx, tx, sent); err != nil {
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("failed to commit outbox transaction: %w", err)
		}
		p.logger.Info("Outbox messages published", zap.Int("count", len(sent)))
	}

	if publishErr != nil {
		return len(sent), publishErr
	}
	return len(sent), nil
}

func (p *Processor) publish(ctx context.Context, msg domain.OutboxMessage) error {
	topic := msg.Topic
	if topic == "" {
		topic = p.cfg.DefaultTopic
	}
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.producer.Produce(ctx, msg.Key, topic, msg.Payload)
	})
	if err != nil {
		return fmt.Errorf("failed to publish outbox message %s: %w", msg.ID, err)
	}
	p.logger.Debug("Outbox message published",
		zap.String("message_id", msg.ID),
		zap.String("message_type", msg.MessageType),
		zap.String("topic", topic))
	return nil
}
