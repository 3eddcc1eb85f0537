// Package visibility decides whether a user may see a course's grades, a
// group's content or an activity.
package visibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/capability"
	"github.com/noah-isme/gema-activity-api/internal/identity"
	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
)

// Gate answers visibility questions for an explicit user.
type Gate interface {
	CanViewGrades(ctx context.Context, user models.User, course models.Course) (bool, error)
	IsGroupVisible(ctx context.Context, user models.User, cm models.CourseModule, groupID int64) (bool, error)
	GradeableCourses(ctx context.Context, user models.User) ([]uint, error)
	ModuleVisible(ctx context.Context, user models.User, cm models.CourseModule) (bool, error)
}

type gate struct {
	caps        capability.Checker
	enrollments repository.EnrollmentRepository
	groups      repository.GroupRepository
	now         func() time.Time
}

// NewGate constructs a Gate.
func NewGate(caps capability.Checker, enrollments repository.EnrollmentRepository, groups repository.GroupRepository) Gate {
	return &gate{
		caps:        caps,
		enrollments: enrollments,
		groups:      groups,
		now:         time.Now,
	}
}

// CanViewGrades requires an active enrolment, the grade and user report
// capabilities, and either a student-visible gradebook or staff access.
func (g *gate) CanViewGrades(ctx context.Context, user models.User, course models.Course) (bool, error) {
	enrollment, err := g.enrollments.Enrollment(ctx, user.ID, course.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load enrolment: %w", err)
	}
	if !enrollment.IsActive(g.now()) {
		return false, nil
	}

	ref := capability.Course(course.ID)
	for _, name := range []string{capability.GradeView, capability.GradeReportUserView} {
		ok, err := g.caps.Has(ctx, user.ID, ref, name)
		if err != nil || !ok {
			return false, err
		}
	}

	if course.ShowGrades {
		return true, nil
	}
	return g.caps.Has(ctx, user.ID, ref, capability.GradeViewAll)
}

// IsGroupVisible only restricts modules in separate groups mode.
func (g *gate) IsGroupVisible(ctx context.Context, user models.User, cm models.CourseModule, groupID int64) (bool, error) {
	if !cm.SeparateGroups() {
		return true, nil
	}

	member, err := g.groups.IsMember(ctx, user.ID, groupID)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	if member {
		return true, nil
	}

	return g.caps.Has(ctx, user.ID, capability.Module(cm.ID), capability.AccessAllGroups)
}

// GradeableCourses returns the enrolled courses, active or not, in which the
// user may open the grader report.
func (g *gate) GradeableCourses(ctx context.Context, user models.User) ([]uint, error) {
	courses, err := g.enrollments.EnrolledCourses(ctx, user.ID, true, g.now())
	if err != nil {
		return nil, fmt.Errorf("load enrolled courses: %w", err)
	}

	ids := make([]uint, 0, len(courses))
	for _, course := range courses {
		ok, err := g.caps.Has(ctx, user.ID, capability.Course(course.ID), capability.GradeReportGraderView)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, course.ID)
		}
	}
	return ids, nil
}

func (g *gate) ModuleVisible(ctx context.Context, user models.User, cm models.CourseModule) (bool, error) {
	if cm.Visible {
		return true, nil
	}
	return g.caps.Has(ctx, user.ID, capability.Module(cm.ID), capability.ViewHiddenActivities)
}

// ModuleGate checks activity visibility for whoever is acting on the
// identity.Stack carried by the context. It is the only reader of that stack.
type ModuleGate struct {
	gate Gate
}

// NewModuleGate wraps gate.
func NewModuleGate(gate Gate) *ModuleGate {
	return &ModuleGate{gate: gate}
}

// UserVisible fails with identity.ErrNoCurrentUser when ctx carries no acting identity.
func (m *ModuleGate) UserVisible(ctx context.Context, cm models.CourseModule) (bool, error) {
	user, ok := identity.StackFrom(ctx).Current()
	if !ok {
		return false, identity.ErrNoCurrentUser
	}
	return m.gate.ModuleVisible(ctx, user, cm)
}
