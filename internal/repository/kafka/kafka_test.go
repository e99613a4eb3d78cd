package kafka

import (
	"context"
	"testing"

	"github.com/NordCoder/Restora/internal/domain/event"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestKeyFromRef(t *testing.T) {
	assert.Equal(t, "job:17", string(KeyFromRef(event.Ref{ID: 17, Type: event.TargetJob})))
}

func TestHeaderCarrier_RoundTripsTraceContext(t *testing.T) {
	prop := propagation.TraceContext{}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		SpanID:     trace.SpanID{1, 2, 3, 4, 5, 6, 7, 8},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	var headers []kafka.Header
	prop.Inject(ctx, headerCarrier{headers: &headers})
	require.NotEmpty(t, headers)

	prop.Inject(ctx, headerCarrier{headers: &headers})
	assert.Len(t, headers, 1, "setting a key twice replaces it")

	got := trace.SpanContextFromContext(prop.Extract(context.Background(), headerCarrier{headers: &headers}))
	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
}

func TestJSONHandler(t *testing.T) {
	type msg struct {
		Name string `json:"name"`
	}
	var seen msg
	h := JSONHandler(func(_ context.Context, key []byte, m msg) error {
		assert.Equal(t, "k", string(key))
		seen = m
		return nil
	})

	require.NoError(t, h(context.Background(), []byte("k"), []byte(`{"name":"ann"}`)))
	assert.Equal(t, "ann", seen.Name)

	err := h(context.Background(), []byte("k"), []byte(`{`))
	assert.ErrorIs(t, err, ErrPoisonMessage)
}
