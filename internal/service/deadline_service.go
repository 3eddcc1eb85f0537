package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/aggregate"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

// todaySafetyCap bounds the number of deadlines accepted for the current day.
const todaySafetyCap = 100

const (
	day          = 24 * time.Hour
	futureWindow = 365
	dstSafetyGap = 3 * time.Hour
)

// DeadlineService lists upcoming activity deadlines from course calendars.
type DeadlineService interface {
	Upcoming(ctx context.Context, ref any, maxCount int) ([]dto.Deadline, error)
}

type deadlineService struct {
	resolver    *identity.Resolver
	enrollments repository.EnrollmentRepository
	calendar    repository.CalendarRepository
	modules     repository.CourseModuleRepository
	moduleGate  *visibility.ModuleGate
	config      AggregationConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewDeadlineService constructs the deadline service.
func NewDeadlineService(
	resolver *identity.Resolver,
	enrollments repository.EnrollmentRepository,
	calendar repository.CalendarRepository,
	modules repository.CourseModuleRepository,
	moduleGate *visibility.ModuleGate,
	config AggregationConfig,
	logger zerolog.Logger,
) DeadlineService {
	return &deadlineService{
		resolver:    resolver,
		enrollments: enrollments,
		calendar:    calendar,
		modules:     modules,
		moduleGate:  moduleGate,
		config:      config.withDefaults(),
		logger:      logger.With().Str("component", "deadline_service").Logger(),
		now:         time.Now,
	}
}

// Upcoming returns every deadline of today and, when fewer than maxCount,
// tops up from the following year. Results are ordered by start time.
func (s *deadlineService) Upcoming(ctx context.Context, ref any, maxCount int) ([]dto.Deadline, error) {
	maxCount, err := resolveLimit(maxCount, s.config.DeadlineLimit)
	if err != nil {
		return nil, err
	}

	return track(ctx, SourceDeadlines, func(ctx context.Context, span trace.Span) ([]dto.Deadline, error) {
		user, ok, err := resolve(ctx, s.resolver, ref)
		if err != nil || !ok {
			return []dto.Deadline{}, err
		}
		span.SetAttributes(attribute.Int64("aggregation.user_id", int64(user.ID)))

		stack := identity.StackFrom(ctx)
		if stack == nil {
			stack = identity.NewStack(user)
			ctx = identity.WithStack(ctx, stack)
		}

		deadlines := []dto.Deadline{}
		err = stack.Impersonate(user, func() error {
			now := s.now()
			courses, err := s.enrollments.EnrolledCourses(ctx, user.ID, false, now)
			if err != nil {
				return fmt.Errorf("load enrolled courses: %w", err)
			}
			if len(courses) == 0 {
				return nil
			}

			courseIDs := make([]uint, 0, len(courses))
			courseNames := make(map[uint]string, len(courses))
			for _, course := range courses {
				courseIDs = append(courseIDs, course.ID)
				courseNames[course.ID] = course.FullName
			}

			loc := user.Location(s.config.Timezone)
			todayStart := midnight(now, loc)
			today, err := s.phase(ctx, stack, user, courseIDs, todayStart, 1, todaySafetyCap)
			if err != nil {
				return err
			}

			var later []acceptedEvent
			if len(today) < maxCount {
				futureStart := midnight(todayStart.Add(day+dstSafetyGap), loc)
				later, err = s.phase(ctx, stack, user, courseIDs, futureStart, futureWindow, maxCount-len(today))
				if err != nil {
					return err
				}
			}

			seen := make(map[uint]struct{}, len(today)+len(later))
			stream := make([]dto.Envelope, 0, len(today)+len(later))
			for _, event := range append(today, later...) {
				if _, dup := seen[event.ID]; dup {
					continue
				}
				seen[event.ID] = struct{}{}
				deadline := dto.Deadline{
					EventID:        event.ID,
					Name:           event.Name,
					CourseID:       event.CourseID,
					CourseFullName: courseNames[event.CourseID],
					ModuleName:     event.ModuleName,
					InstanceID:     event.InstanceID,
					CourseModuleID: event.CourseModuleID,
					EventType:      event.EventType,
					TimeStart:      event.TimeStart,
				}
				stream = append(stream, dto.Wrap(deadline, deadline.TimeStart, int64(deadline.EventID)))
			}

			deadlines = dto.Unwrap[dto.Deadline](aggregate.Merge(aggregate.Soonest, 0, stream))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return deadlines, nil
	})
}

type acceptedEvent struct {
	models.CalendarEvent
	CourseModuleID uint
}

// phase accepts at most maxEvents activity deadlines starting within days
// whole days from start. Visibility is decided for the impersonated user.
func (s *deadlineService) phase(ctx context.Context, stack *identity.Stack, user models.User, courseIDs []uint, start time.Time, days int, maxEvents int) ([]acceptedEvent, error) {
	end := start.Add(time.Duration(days)*day - time.Second)

	accepted := make([]acceptedEvent, 0)
	err := stack.Impersonate(user, func() error {
		events, err := s.calendar.EventsInRange(ctx, start, end, courseIDs)
		if err != nil {
			return fmt.Errorf("load calendar events: %w", err)
		}

		for _, event := range events {
			if event.EventType == models.EventTypeCourse || event.ModuleName == "" {
				continue
			}

			cm, err := s.modules.ByInstance(ctx, event.ModuleName, event.InstanceID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.logger.Debug().Uint("event_id", event.ID).Str("module", event.ModuleName).Msg("calendar event without course module")
				continue
			}
			if err != nil {
				return fmt.Errorf("load course module: %w", err)
			}

			visible, err := s.moduleGate.UserVisible(ctx, cm)
			if err != nil {
				return err
			}
			if !visible {
				continue
			}

			accepted = append(accepted, acceptedEvent{CalendarEvent: event, CourseModuleID: cm.ID})
			if len(accepted) >= maxEvents {
				break
			}
		}
		return nil
	})

	return accepted, err
}

func midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
