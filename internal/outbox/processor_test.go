package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jonno85/tech-task/internal/repository/outbox_repo"
)

var outboxColumns = []string{"id", "aggregate_id", "aggregate_type", "message_type", "topic", "key_value", "payload", "status", "created_at", "sent_at"}

type produced struct {
	key   string
	topic string
	value string
}

type fakeProducer struct {
	mu       sync.Mutex
	messages []produced
	failOn   map[string]error
}

func (f *fakeProducer) Produce(_ context.Context, key, topic string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failOn[string(value)]; ok {
		return err
	}
	f.messages = append(f.messages, produced{key: key, topic: topic, value: string(value)})
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func (f *fakeProducer) sent() []produced {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]produced(nil), f.messages...)
}

func testConfig() ProcessorConfig {
	cfg := DefaultProcessorConfig("bulk_transfer_events")
	cfg.PollInterval = 10 * time.Millisecond
	cfg.BatchSize = 10
	return cfg
}

func pendingRows(ids ...string) *sqlmock.Rows {
	createdAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(outboxColumns)
	for _, id := range ids {
		rows.AddRow(id, "1", "bank_account", "bulk_transfer.executed", "", "1", []byte(id), "PENDING", createdAt, nil)
	}
	return rows
}

func TestProcessBatch_PublishesAndMarksSent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
		WithArgs("PENDING", 10).
		WillReturnRows(pendingRows("m1", "m2"))
	mock.ExpectExec("UPDATE outbox_messages").
		WithArgs("SENT", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	producer := &fakeProducer{}
	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), producer, testConfig(), zap.NewNop())

	n, err := p.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []produced{
		{key: "1", topic: "bulk_transfer_events", value: "m1"},
		{key: "1", topic: "bulk_transfer_events", value: "m2"},
	}, producer.sent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatch_NothingPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
		WillReturnRows(sqlmock.NewRows(outboxColumns))
	mock.ExpectRollback()

	producer := &fakeProducer{}
	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), producer, testConfig(), zap.NewNop())

	n, err := p.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, producer.sent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatch_StopsAtFirstPublishFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
		WillReturnRows(pendingRows("m1", "m2", "m3"))
	mock.ExpectExec("UPDATE outbox_messages").
		WithArgs("SENT", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	producer := &fakeProducer{failOn: map[string]error{"m2": errors.New("broker down")}}
	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), producer, testConfig(), zap.NewNop())

	n, err := p.ProcessBatch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2")
	assert.Equal(t, 1, n)
	assert.Equal(t, []produced{{key: "1", topic: "bulk_transfer_events", value: "m1"}}, producer.sent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatch_FirstMessageFailsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
		WillReturnRows(pendingRows("m1"))
	mock.ExpectRollback()

	producer := &fakeProducer{failOn: map[string]error{"m1": errors.New("broker down")}}
	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), producer, testConfig(), zap.NewNop())

	n, err := p.ProcessBatch(context.Background())

	require.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessBatch_OpenBreakerSkipsProducer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
			WillReturnRows(pendingRows("m1"))
		mock.ExpectRollback()
	}

	cfg := testConfig()
	cfg.FailureThreshold = 1
	cfg.OpenTimeout = time.Minute
	producer := &fakeProducer{failOn: map[string]error{"m1": errors.New("broker down")}}
	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), producer, cfg, zap.NewNop())

	_, err = p.ProcessBatch(context.Background())
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, p.breaker.State())

	_, err = p.ProcessBatch(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessor_StartAndStop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 100; i++ {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM outbox_messages").
			WillReturnRows(sqlmock.NewRows(outboxColumns))
		mock.ExpectRollback()
	}

	p := NewProcessor(db, outbox_repo.NewOutboxRepository(), &fakeProducer{}, testConfig(), zap.NewNop())
	p.Start(context.Background())
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop")
	}
}

func TestProcessor_StopWithoutStart(t *testing.T) {
	p := NewProcessor(nil, outbox_repo.NewOutboxRepository(), &fakeProducer{}, testConfig(), zap.NewNop())

	p.Stop()
	p.Start(context.Background())
}

func TestProcessor_ContextCancelEndsLoop(t *testing.T) {
	p := NewProcessor(nil, outbox_repo.NewOutboxRepository(), &fakeProducer{}, testConfig(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p.Start(ctx)

	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("processor did not exit on context cancellation")
	}
}
