package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-activity-api/internal/observability"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestTrackRecordsSpanAndMetrics(t *testing.T) {
	recorder := recordSpans(t)
	success := observability.AggregationRequests().WithLabelValues("probe", observability.OutcomeSuccess)
	failure := observability.AggregationRequests().WithLabelValues("probe", observability.OutcomeError)
	before := testutil.ToFloat64(success)
	beforeFailure := testutil.ToFloat64(failure)

	items, err := track(context.Background(), "probe", func(context.Context, trace.Span) ([]int, error) {
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, items)

	boom := errors.New("boom")
	items, err = track(context.Background(), "probe", func(context.Context, trace.Span) ([]int, error) {
		return []int{1}, boom
	})
	require.ErrorIs(t, err, boom)
	require.Nil(t, items)

	require.Equal(t, before+1, testutil.ToFloat64(success))
	require.Equal(t, beforeFailure+1, testutil.ToFloat64(failure))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "aggregation.probe", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestResolveLimit(t *testing.T) {
	limit, err := resolveLimit(0, 7)
	require.NoError(t, err)
	require.Equal(t, 7, limit)

	limit, err = resolveLimit(3, 7)
	require.NoError(t, err)
	require.Equal(t, 3, limit)

	_, err = resolveLimit(-1, 7)
	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestAggregationConfigDefaults(t *testing.T) {
	cfg := AggregationConfig{}.withDefaults()
	require.Equal(t, 10, cfg.ForumLimit)
	require.Equal(t, 5, cfg.DeadlineLimit)
	require.Equal(t, 5, cfg.MessageLimit)
	require.NotNil(t, cfg.Timezone)
	require.Positive(t, cfg.Lookback)
}
