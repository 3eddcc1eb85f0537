package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
)

// OverviewService assembles every source of the personal dashboard.
type OverviewService interface {
	Overview(ctx context.Context, ref any, limit int) (dto.OverviewResponse, error)
}

type overviewService struct {
	resolver  *identity.Resolver
	forums    ForumActivityService
	deadlines DeadlineService
	grading   GradingService
	messages  MessageService
	logger    zerolog.Logger
}

// NewOverviewService constructs the overview service.
func NewOverviewService(
	resolver *identity.Resolver,
	forums ForumActivityService,
	deadlines DeadlineService,
	grading GradingService,
	messages MessageService,
	logger zerolog.Logger,
) OverviewService {
	return &overviewService{
		resolver:  resolver,
		forums:    forums,
		deadlines: deadlines,
		grading:   grading,
		messages:  messages,
		logger:    logger.With().Str("component", "overview_service").Logger(),
	}
}

// Overview runs the sources in parallel. Each branch owns its identity stack.
// limit caps every section; zero keeps each source's configured default and
// leaves the grading backlog uncapped. Today's deadlines are never truncated.
// The first failing source fails the whole overview.
func (s *overviewService) Overview(ctx context.Context, ref any, limit int) (dto.OverviewResponse, error) {
	response := dto.OverviewResponse{
		ForumActivity: []dto.ForumActivity{},
		Deadlines:     []dto.Deadline{},
		Grading:       []dto.BacklogItem{},
		Messages:      []dto.DirectMessage{},
	}

	user, ok, err := resolve(ctx, s.resolver, ref)
	if err != nil || !ok {
		return response, err
	}

	branch := func(ctx context.Context) context.Context {
		return identity.WithStack(ctx, identity.NewStack(user))
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		items, err := s.forums.Recent(branch(gctx), user, limit, time.Time{})
		if err != nil {
			return fmt.Errorf("forum activity: %w", err)
		}
		response.ForumActivity = items
		return nil
	})
	group.Go(func() error {
		items, err := s.deadlines.Upcoming(branch(gctx), user, limit)
		if err != nil {
			return fmt.Errorf("deadlines: %w", err)
		}
		response.Deadlines = items
		return nil
	})
	group.Go(func() error {
		items, err := s.grading.Ungraded(branch(gctx), user, time.Time{})
		if err != nil {
			return fmt.Errorf("grading: %w", err)
		}
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		response.Grading = items
		return nil
	})
	group.Go(func() error {
		items, err := s.messages.Recent(branch(gctx), user, limit, time.Time{})
		if err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		response.Messages = items
		return nil
	})

	if err := group.Wait(); err != nil {
		s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("overview aggregation failed")
		return dto.OverviewResponse{}, err
	}

	return response, nil
}
