package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-activity-api/internal/aggregate"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
)

// MessageService lists recent direct messages received by a user.
type MessageService interface {
	Recent(ctx context.Context, ref any, limit int, since time.Time) ([]dto.DirectMessage, error)
}

type messageService struct {
	resolver *identity.Resolver
	repo     repository.MessageRepository
	policy   *bluemonday.Policy
	config   AggregationConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMessageService constructs the message service.
func NewMessageService(resolver *identity.Resolver, repo repository.MessageRepository, config AggregationConfig, logger zerolog.Logger) MessageService {
	return &messageService{
		resolver: resolver,
		repo:     repo,
		policy:   bluemonday.StrictPolicy(),
		config:   config.withDefaults(),
		logger:   logger.With().Str("component", "message_service").Logger(),
		now:      time.Now,
	}
}

// Recent returns read and unread messages newest first.
func (s *messageService) Recent(ctx context.Context, ref any, limit int, since time.Time) ([]dto.DirectMessage, error) {
	limit, err := resolveLimit(limit, s.config.MessageLimit)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		since = s.now().Add(-s.config.Lookback)
	}

	return track(ctx, SourceMessages, func(ctx context.Context, span trace.Span) ([]dto.DirectMessage, error) {
		user, ok, err := resolve(ctx, s.resolver, ref)
		if err != nil || !ok {
			return []dto.DirectMessage{}, err
		}
		span.SetAttributes(attribute.Int64("aggregation.user_id", int64(user.ID)))

		rows, err := s.repo.Received(ctx, user.ID, since, limit)
		if err != nil {
			s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("failed to load messages")
			return nil, fmt.Errorf("load messages: %w", err)
		}

		stream := make([]dto.Envelope, 0, len(rows))
		for _, row := range rows {
			text := row.SmallMessage
			if strings.TrimSpace(text) == "" {
				text = row.FullMessage
			}
			message := dto.DirectMessage{
				ID:         row.ID,
				SenderID:   row.SenderID,
				SenderName: models.User{Username: row.SenderUsername, FirstName: row.SenderFirstName, LastName: row.SenderLastName}.FullName(),
				Subject:    strings.TrimSpace(s.policy.Sanitize(row.Subject)),
				Text:       excerpt(s.policy.Sanitize(text)),
				CreatedAt:  row.CreatedAt,
				Unread:     !row.IsRead,
			}
			stream = append(stream, dto.Wrap(message, message.CreatedAt, int64(message.ID)))
		}

		return dto.Unwrap[dto.DirectMessage](aggregate.Merge(aggregate.Newest, limit, stream)), nil
	})
}
