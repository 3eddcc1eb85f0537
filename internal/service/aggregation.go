package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/observability"
)

const tracerName = "github.com/noah-isme/gema-activity-api/internal/service"

// ErrInvalidLimit indicates a negative result size.
var ErrInvalidLimit = errors.New("limit must not be negative")

// Aggregation sources, used as metric labels and span names.
const (
	SourceForum      = "forum"
	SourceDeadlines  = "deadlines"
	SourceGrading    = "grading"
	SourceMessages   = "messages"
	SourceCourseInfo = "course_info"
)

// AggregationConfig carries defaults shared by the source adapters.
type AggregationConfig struct {
	ForumLimit    int
	DeadlineLimit int
	MessageLimit  int
	Lookback      time.Duration
	Timezone      *time.Location
}

func (c AggregationConfig) withDefaults() AggregationConfig {
	if c.ForumLimit <= 0 {
		c.ForumLimit = 10
	}
	if c.DeadlineLimit <= 0 {
		c.DeadlineLimit = 5
	}
	if c.MessageLimit <= 0 {
		c.MessageLimit = 5
	}
	if c.Lookback <= 0 {
		c.Lookback = 12 * 7 * 24 * time.Hour
	}
	if c.Timezone == nil {
		c.Timezone = time.UTC
	}
	return c
}

// track wraps one adapter invocation with a span and the aggregation metrics.
func track[T any](ctx context.Context, source string, fn func(ctx context.Context, span trace.Span) ([]T, error)) ([]T, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "aggregation."+source)
	defer span.End()

	start := time.Now()
	items, err := fn(ctx, span)
	observability.ObserveAggregation(source, time.Since(start).Seconds(), len(items), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, source+"_failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("aggregation.items", len(items)))
	return items, nil
}

// resolve maps an unknown user to "no data" so callers can return empty results.
func resolve(ctx context.Context, resolver *identity.Resolver, ref any) (models.User, bool, error) {
	user, err := resolver.Resolve(ctx, ref)
	if errors.Is(err, identity.ErrUserNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

func resolveLimit(limit, fallback int) (int, error) {
	if limit < 0 {
		return 0, ErrInvalidLimit
	}
	if limit == 0 {
		return fallback, nil
	}
	return limit, nil
}
