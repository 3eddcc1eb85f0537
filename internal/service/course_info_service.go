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

	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
	"github.com/noah-isme/gema-activity-api/internal/visibility"
)

// CourseInfoService reports completion progress and feedback availability per course.
type CourseInfoService interface {
	CourseInfo(ctx context.Context, ref any, courseIDs []uint) ([]dto.CourseInfo, error)
}

type courseInfoService struct {
	resolver    *identity.Resolver
	gate        visibility.Gate
	moduleGate  *visibility.ModuleGate
	caps        capability.Checker
	enrollments repository.EnrollmentRepository
	modules     repository.CourseModuleRepository
	gradebook   repository.GradebookRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewCourseInfoService constructs the course info service.
func NewCourseInfoService(
	resolver *identity.Resolver,
	gate visibility.Gate,
	moduleGate *visibility.ModuleGate,
	caps capability.Checker,
	enrollments repository.EnrollmentRepository,
	modules repository.CourseModuleRepository,
	gradebook repository.GradebookRepository,
	logger zerolog.Logger,
) CourseInfoService {
	return &courseInfoService{
		resolver:    resolver,
		gate:        gate,
		moduleGate:  moduleGate,
		caps:        caps,
		enrollments: enrollments,
		modules:     modules,
		gradebook:   gradebook,
		logger:      logger.With().Str("component", "course_info_service").Logger(),
		now:         time.Now,
	}
}

// CourseInfo describes the requested courses in request order, skipping
// unknown courses and those the user is not actively enrolled in.
func (s *courseInfoService) CourseInfo(ctx context.Context, ref any, courseIDs []uint) ([]dto.CourseInfo, error) {
	return track(ctx, SourceCourseInfo, func(ctx context.Context, span trace.Span) ([]dto.CourseInfo, error) {
		user, ok, err := resolve(ctx, s.resolver, ref)
		if err != nil || !ok {
			return []dto.CourseInfo{}, err
		}
		span.SetAttributes(attribute.Int64("aggregation.user_id", int64(user.ID)))

		stack := identity.StackFrom(ctx)
		if stack == nil {
			stack = identity.NewStack(user)
			ctx = identity.WithStack(ctx, stack)
		}

		infos := make([]dto.CourseInfo, 0, len(courseIDs))
		seen := make(map[uint]struct{}, len(courseIDs))
		for _, courseID := range courseIDs {
			if _, dup := seen[courseID]; dup {
				continue
			}
			seen[courseID] = struct{}{}

			course, err := s.gradebook.Course(ctx, courseID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load course %d: %w", courseID, err)
			}

			enrollment, err := s.enrollments.Enrollment(ctx, user.ID, courseID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load enrolment: %w", err)
			}
			if !enrollment.IsActive(s.now()) {
				continue
			}

			info := dto.CourseInfo{CourseID: courseID}
			err = stack.Impersonate(user, func() error {
				info.Completion, err = s.completion(ctx, course)
				return err
			})
			if err != nil {
				return nil, err
			}

			info.Feedback, err = s.feedback(ctx, user, course)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
		return infos, nil
	})
}

// completion counts tracked activities visible to the acting user. The
// percentage is rounded up.
func (s *courseInfoService) completion(ctx context.Context, course models.Course) (dto.CompletionProgress, error) {
	progress := dto.CompletionProgress{}
	if !course.EnableCompletion {
		return progress, nil
	}

	user, _ := identity.StackFrom(ctx).Current()
	tracked, err := s.modules.TrackedByCourse(ctx, course.ID)
	if err != nil {
		return progress, fmt.Errorf("load tracked modules: %w", err)
	}

	visible := make([]uint, 0, len(tracked))
	for _, cm := range tracked {
		ok, err := s.moduleGate.UserVisible(ctx, cm)
		if err != nil {
			return progress, err
		}
		if ok {
			visible = append(visible, cm.ID)
		}
	}
	if len(visible) == 0 {
		return progress, nil
	}

	states, err := s.gradebook.Completions(ctx, user.ID, visible)
	if err != nil {
		return progress, fmt.Errorf("load completion states: %w", err)
	}

	progress.Total = len(visible)
	for _, id := range visible {
		if state, ok := states[id]; ok && state.IsComplete() {
			progress.Complete++
		}
	}
	progress.Percent = (progress.Complete*100 + progress.Total - 1) / progress.Total
	return progress, nil
}

func (s *courseInfoService) feedback(ctx context.Context, user models.User, course models.Course) (dto.CourseFeedback, error) {
	result := dto.CourseFeedback{URL: fmt.Sprintf("/grade/report/user/index.php?id=%d", course.ID)}

	allowed, err := s.gate.CanViewGrades(ctx, user, course)
	if err != nil || !allowed {
		return result, err
	}

	viewHidden, err := s.caps.Has(ctx, user.ID, capability.Course(course.ID), capability.GradeViewHidden)
	if err != nil {
		return result, err
	}

	grades, err := s.gradebook.Grades(ctx, user.ID, course.ID)
	if err != nil {
		return result, fmt.Errorf("load grades: %w", err)
	}
	for _, grade := range grades {
		if grade.Hidden && !viewHidden {
			continue
		}
		if grade.HasGradeOrFeedback() {
			result.Available = true
			break
		}
	}
	return result, nil
}
