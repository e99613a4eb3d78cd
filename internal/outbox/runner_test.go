package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/NordCoder/Restora/internal/domain/kafka"
	"github.com/NordCoder/Restora/internal/domain/outbox"
	"github.com/NordCoder/Restora/internal/obs/retry"
	"github.com/NordCoder/Restora/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFanout struct {
	mu   sync.Mutex
	fail int
	got  []kafka.FanoutRequested
}

func (f *fakeFanout) PublishFanoutRequested(_ context.Context, msg kafka.FanoutRequested) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.New("broker down")
	}
	f.got = append(f.got, msg)
	return nil
}

type noWait struct{}

func (noWait) Next(int) time.Duration { return 0 }

func enqueueFanout(t *testing.T, repo outbox.Repository, key string) {
	t.Helper()
	data, err := json.Marshal(kafka.FanoutRequested{
		IdempotencyKey: key,
		Event: event.Event{
			Kind:   event.KindNoteAttached,
			Target: event.Entity{ID: 1, Type: event.TargetContact},
		},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Enqueue(context.Background(), key, outbox.KindFanoutRequested, data))
}

func TestRunner_TickPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := sqlite.NewOutboxRepo(db)

	pub := &fakeFanout{fail: 1}
	pol := retry.Policy{Attempts: 2, Backoff: noWait{}}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, pol), Config{BatchSize: 10, InProgressTTL: time.Minute})

	enqueueFanout(t, repo, "a")
	enqueueFanout(t, repo, "b")

	assert.Equal(t, 2, r.Tick(ctx), "first publish failure is retried")
	require.Len(t, pub.got, 2)
	assert.Equal(t, "a", pub.got[0].IdempotencyKey)

	assert.Equal(t, 0, r.Tick(ctx))
	left, err := repo.PickBatch(ctx, 10, -time.Minute)
	require.NoError(t, err)
	assert.Empty(t, left, "published rows are marked successful")
}

func TestRunner_FailedRowsStayForRetry(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()
	repo := sqlite.NewOutboxRepo(db)

	pub := &fakeFanout{fail: 10}
	pol := retry.Policy{Attempts: 1, Backoff: noWait{}}
	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, pol), Config{BatchSize: 10, InProgressTTL: time.Minute})

	enqueueFanout(t, repo, "a")
	assert.Equal(t, 0, r.Tick(ctx))

	stale, err := repo.PickBatch(ctx, 10, -time.Minute)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
}

func TestGlobalHandler_UnknownKind(t *testing.T) {
	h := MakeGlobalOutboxHandler(&fakeFanout{}, retry.Policy{})
	_, err := h(outbox.Kind(99))
	assert.Error(t, err)
}
