package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-activity-api/internal/aggregate"
	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

// BacklogStrategy produces the grading backlog of one module type.
type BacklogStrategy interface {
	Ungraded(ctx context.Context, courseIDs []uint, since time.Time) ([]dto.BacklogItem, error)
	NumSubmissions(ctx context.Context, courseID, instanceID uint) (int64, error)
	ParticipantCapability() string
}

// ParticipantCapability returns the capability that makes an enrolled user a
// participant of the module type. An empty result counts every active enrolment.
func ParticipantCapability(moduleType string) string {
	switch moduleType {
	case "assign":
		return capability.AssignSubmit
	case "quiz":
		return capability.QuizAttempt
	case "choice":
		return capability.ChoiceChoose
	case "feedback":
		return capability.FeedbackComplete
	default:
		return ""
	}
}

// GradingRegistry maps module type names to their backlog strategy.
type GradingRegistry struct {
	mu         sync.RWMutex
	strategies map[string]BacklogStrategy
}

// NewGradingRegistry returns an empty registry.
func NewGradingRegistry() *GradingRegistry {
	return &GradingRegistry{strategies: make(map[string]BacklogStrategy)}
}

// Register binds strategy to moduleType, replacing any previous binding.
func (r *GradingRegistry) Register(moduleType string, strategy BacklogStrategy) error {
	if moduleType == "" {
		return errors.New("module type must not be empty")
	}
	if strategy == nil {
		return fmt.Errorf("strategy for %s must not be nil", moduleType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[moduleType] = strategy
	return nil
}

func (r *GradingRegistry) Lookup(moduleType string) (BacklogStrategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	strategy, ok := r.strategies[moduleType]
	return strategy, ok
}

// Registered lists the module types with a strategy, sorted.
func (r *GradingRegistry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregistered returns the installed module types that have no strategy.
func (r *GradingRegistry) Unregistered(installed []string) []string {
	missing := make([]string, 0)
	for _, name := range installed {
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ReportUnregistered logs installed module types that have no strategy. A
// failing listing is logged as a warning and does not stop startup.
func (r *GradingRegistry) ReportUnregistered(ctx context.Context, modules repository.CourseModuleRepository, logger zerolog.Logger) []string {
	installed, err := modules.InstalledTypes(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list installed module types")
		return nil
	}
	missing := r.Unregistered(installed)
	if len(missing) > 0 {
		logger.Info().Strs("module_types", missing).Msg("module types without grading strategy are skipped")
	}
	return missing
}

// DefaultGradingRegistry registers the assignment and quiz strategies.
func DefaultGradingRegistry(repo repository.GradingRepository) *GradingRegistry {
	registry := NewGradingRegistry()
	_ = registry.Register("assign", NewAssignStrategy(repo))
	_ = registry.Register("quiz", NewQuizStrategy(repo))
	return registry
}

type assignStrategy struct {
	repo repository.GradingRepository
}

// NewAssignStrategy reports submitted assignments without a current grade.
func NewAssignStrategy(repo repository.GradingRepository) BacklogStrategy {
	return &assignStrategy{repo: repo}
}

func (s *assignStrategy) Ungraded(ctx context.Context, courseIDs []uint, since time.Time) ([]dto.BacklogItem, error) {
	rows, err := s.repo.UngradedAssignments(ctx, courseIDs, since)
	if err != nil {
		return nil, err
	}
	return backlogItems("assign", rows), nil
}

func (s *assignStrategy) NumSubmissions(ctx context.Context, _ uint, instanceID uint) (int64, error) {
	return s.repo.SubmittedAssignments(ctx, instanceID)
}

func (s *assignStrategy) ParticipantCapability() string {
	return ParticipantCapability("assign")
}

type quizStrategy struct {
	repo repository.GradingRepository
}

// NewQuizStrategy reports finished quiz attempts awaiting manual grading.
func NewQuizStrategy(repo repository.GradingRepository) BacklogStrategy {
	return &quizStrategy{repo: repo}
}

func (s *quizStrategy) Ungraded(ctx context.Context, courseIDs []uint, since time.Time) ([]dto.BacklogItem, error) {
	rows, err := s.repo.UngradedQuizzes(ctx, courseIDs, since)
	if err != nil {
		return nil, err
	}
	return backlogItems("quiz", rows), nil
}

func (s *quizStrategy) NumSubmissions(ctx context.Context, _ uint, instanceID uint) (int64, error) {
	return s.repo.FinishedQuizAttempts(ctx, instanceID)
}

func (s *quizStrategy) ParticipantCapability() string {
	return ParticipantCapability("quiz")
}

func backlogItems(moduleType string, rows []repository.UngradedRow) []dto.BacklogItem {
	items := make([]dto.BacklogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.BacklogItem{
			CourseID:       row.CourseID,
			CourseFullName: row.CourseFullName,
			ModuleType:     moduleType,
			InstanceID:     row.InstanceID,
			CourseModuleID: row.CourseModuleID,
			Name:           row.Name,
			Ungraded:       row.Ungraded,
			OpenTime:       row.OpenTime,
			CloseTime:      row.CloseTime,
		})
	}
	return items
}

// ParticipantKey identifies one memoised participant count.
type ParticipantKey struct {
	CourseID   uint
	ModuleType string
}

// GradingService lists the grading backlog of a grader.
type GradingService interface {
	Ungraded(ctx context.Context, ref any, since time.Time) ([]dto.BacklogItem, error)
}

type gradingService struct {
	resolver    *identity.Resolver
	gate        visibility.Gate
	registry    *GradingRegistry
	modules     repository.CourseModuleRepository
	enrollments repository.EnrollmentRepository
	config      AggregationConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading backlog service.
func NewGradingService(
	resolver *identity.Resolver,
	gate visibility.Gate,
	registry *GradingRegistry,
	modules repository.CourseModuleRepository,
	enrollments repository.EnrollmentRepository,
	config AggregationConfig,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		resolver:    resolver,
		gate:        gate,
		registry:    registry,
		modules:     modules,
		enrollments: enrollments,
		config:      config.withDefaults(),
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// Ungraded returns backlog items of every gradeable course, soonest due first.
// Module types without a registered strategy are skipped.
func (s *gradingService) Ungraded(ctx context.Context, ref any, since time.Time) ([]dto.BacklogItem, error) {
	now := s.now()
	if since.IsZero() {
		since = now.Add(-s.config.Lookback)
	}

	return track(ctx, SourceGrading, func(ctx context.Context, span trace.Span) ([]dto.BacklogItem, error) {
		user, ok, err := resolve(ctx, s.resolver, ref)
		if err != nil || !ok {
			return []dto.BacklogItem{}, err
		}
		span.SetAttributes(attribute.Int64("aggregation.user_id", int64(user.ID)))

		courseIDs, err := s.gate.GradeableCourses(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("gradeable courses: %w", err)
		}
		if len(courseIDs) == 0 {
			return []dto.BacklogItem{}, nil
		}

		installed, err := s.modules.InstalledTypes(ctx)
		if err != nil {
			return nil, fmt.Errorf("installed module types: %w", err)
		}

		participants := aggregate.NewMemo[ParticipantKey, int64]()
		streams := make([][]dto.Envelope, 0, len(installed))
		for _, moduleType := range installed {
			strategy, ok := s.registry.Lookup(moduleType)
			if !ok {
				s.logger.Debug().Str("module_type", moduleType).Msg("no grading strategy registered")
				continue
			}

			items, err := strategy.Ungraded(ctx, courseIDs, since)
			if err != nil {
				return nil, fmt.Errorf("%s backlog: %w", moduleType, err)
			}

			stream := make([]dto.Envelope, 0, len(items))
			for _, item := range items {
				item.Submitted, err = strategy.NumSubmissions(ctx, item.CourseID, item.InstanceID)
				if err != nil {
					return nil, fmt.Errorf("%s submissions: %w", moduleType, err)
				}

				key := ParticipantKey{CourseID: item.CourseID, ModuleType: moduleType}
				item.Participants, err = participants.Get(key, func() (int64, error) {
					return s.enrollments.CountParticipants(ctx, item.CourseID, strategy.ParticipantCapability(), now)
				})
				if err != nil {
					return nil, fmt.Errorf("%s participants: %w", moduleType, err)
				}

				stream = append(stream, dto.Wrap(item, item.DueTime(), int64(item.CourseModuleID)))
			}
			streams = append(streams, stream)
		}

		return dto.Unwrap[dto.BacklogItem](aggregate.Merge(aggregate.Soonest, 0, streams...)), nil
	})
}
