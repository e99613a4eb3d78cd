package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NordCoder/Restora/internal/domain/outbox"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

var _ outbox.Repository = (*OutboxRepo)(nil)

type OutboxRepo struct {
	db *DB
	tx *Transactor
}

func NewOutboxRepo(db *DB) *OutboxRepo { return &OutboxRepo{db: db, tx: NewTransactor(db)} }

const (
	qEnqueue = `
INSERT OR IGNORE INTO outbox (idempotency_key, data, status, kind, traceparent, tracestate, baggage, created_at, updated_at)
VALUES (?, ?, 'CREATED', ?, ?, ?, ?, ?, ?);`

	qPickCandidates = `
SELECT idempotency_key, kind, data, status, created_at, updated_at, traceparent, tracestate, baggage
FROM outbox
WHERE status = 'CREATED'
   OR (status = 'IN_PROGRESS' AND updated_at < ?)
ORDER BY created_at
LIMIT ?;`

	qPickClaim = `
UPDATE outbox
SET status = 'IN_PROGRESS', updated_at = ?
WHERE idempotency_key IN (?);`

	qMarkSuccess = `
UPDATE outbox
SET status = 'SUCCESS', updated_at = ?
WHERE idempotency_key IN (?);`
)

type outboxRow struct {
	IdempotencyKey string    `db:"idempotency_key"`
	Kind           int       `db:"kind"`
	Data           []byte    `db:"data"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Traceparent    string    `db:"traceparent"`
	Tracestate     string    `db:"tracestate"`
	Baggage        string    `db:"baggage"`
}

func (r *OutboxRepo) Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	at := ts(now())
	if _, err := r.db.ext(ctx).ExecContext(ctx, qEnqueue, key, data, int(kind),
		carrier.Get("traceparent"), carrier.Get("tracestate"), carrier.Get("baggage"), at, at,
	); err != nil {
		return fmt.Errorf("outbox enqueue: %w", err)
	}
	return nil
}

func (r *OutboxRepo) PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if batch <= 0 {
		return nil, errors.New("batch must be > 0")
	}

	var out []outbox.Message
	err := r.tx.WithTx(ctx, func(ctx context.Context) error {
		ext := r.db.ext(ctx)
		at := now()

		var rows []outboxRow
		if err := sqlx.SelectContext(ctx, ext, &rows, qPickCandidates, ts(at.Add(-inProgressTTL)), batch); err != nil {
			return fmt.Errorf("outbox pick: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		keys := make([]string, 0, len(rows))
		for _, row := range rows {
			keys = append(keys, row.IdempotencyKey)
		}
		q, args, err := sqlx.In(qPickClaim, ts(at), keys)
		if err != nil {
			return fmt.Errorf("outbox claim: %w", err)
		}
		if _, err := ext.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("outbox claim: %w", err)
		}

		out = make([]outbox.Message, 0, len(rows))
		for _, row := range rows {
			out = append(out, outbox.Message{
				IdempotencyKey: row.IdempotencyKey,
				Kind:           outbox.Kind(row.Kind),
				Data:           row.Data,
				Status:         outbox.StatusInProgress,
				CreatedAt:      row.CreatedAt,
				UpdatedAt:      at,
				Traceparent:    row.Traceparent,
				Tracestate:     row.Tracestate,
				Baggage:        row.Baggage,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *OutboxRepo) MarkSuccess(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	q, args, err := sqlx.In(qMarkSuccess, ts(now()), keys)
	if err != nil {
		return fmt.Errorf("outbox mark success: %w", err)
	}
	if _, err := r.db.ext(ctx).ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("outbox mark success: %w", err)
	}
	return nil
}
