// Package capability answers "can user X do Y in context Z" from role
// assignments.
package capability

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
	"github.com/noah-isme/gema-activity-api/internal/repository"
)

// ErrContextNotFound is returned when a check targets a course or module that does not exist.
var ErrContextNotFound = errors.New("capability context not found")

// Capability names consumed by the aggregation engine.
const (
	GradeView             = "moodle/grade:view"
	GradeViewAll          = "moodle/grade:viewall"
	GradeViewHidden       = "moodle/grade:viewhidden"
	GradeReportUserView   = "gradereport/user:view"
	GradeReportGraderView = "gradereport/grader:view"
	AccessAllGroups       = "moodle/site:accessallgroups"
	ViewHiddenActivities  = "moodle/course:viewhiddenactivities"
	AssignSubmit          = "mod/assign:submit"
	QuizAttempt           = "mod/quiz:attempt"
	ChoiceChoose          = "mod/choice:choose"
	FeedbackComplete      = "mod/feedback:complete"
)

// ContextRef identifies the scope a capability is evaluated in.
type ContextRef = models.ContextRef

// System returns the root context.
func System() ContextRef {
	return ContextRef{Level: models.ContextLevelSystem}
}

// Course returns the context of a course.
func Course(courseID uint) ContextRef {
	return ContextRef{Level: models.ContextLevelCourse, InstanceID: courseID}
}

// Module returns the context of a course module.
func Module(courseModuleID uint) ContextRef {
	return ContextRef{Level: models.ContextLevelModule, InstanceID: courseModuleID}
}

// Checker evaluates capabilities. Unknown capability names evaluate to false.
type Checker interface {
	Has(ctx context.Context, userID uint, ref ContextRef, name string) (bool, error)
}

type roleChecker struct {
	repo repository.AccessRepository
}

// NewChecker builds a Checker over role assignments. Site administrators hold
// every capability; otherwise roles assigned anywhere on the path from ref up
// to the system context count, and a single prohibit overrides any allow.
func NewChecker(repo repository.AccessRepository) Checker {
	return &roleChecker{repo: repo}
}

func (c *roleChecker) Has(ctx context.Context, userID uint, ref ContextRef, name string) (bool, error) {
	if userID == 0 || name == "" {
		return false, nil
	}

	chain, err := c.chain(ctx, ref)
	if err != nil {
		return false, err
	}

	admin, err := c.repo.IsSiteAdmin(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("check site admin: %w", err)
	}
	if admin {
		return true, nil
	}

	permissions, err := c.repo.Permissions(ctx, userID, name, chain)
	if err != nil {
		return false, fmt.Errorf("load permissions for %s: %w", name, err)
	}

	allowed := false
	for _, permission := range permissions {
		switch {
		case permission == models.PermissionProhibit:
			return false, nil
		case permission == models.PermissionAllow:
			allowed = true
		}
	}

	return allowed, nil
}

func (c *roleChecker) chain(ctx context.Context, ref ContextRef) ([]ContextRef, error) {
	switch ref.Level {
	case models.ContextLevelSystem:
		return []ContextRef{System()}, nil
	case models.ContextLevelCourse:
		exists, err := c.repo.CourseExists(ctx, ref.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("load course %d: %w", ref.InstanceID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: course %d", ErrContextNotFound, ref.InstanceID)
		}
		return []ContextRef{ref, System()}, nil
	case models.ContextLevelModule:
		courseID, err := c.repo.ModuleCourseID(ctx, ref.InstanceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: module %d", ErrContextNotFound, ref.InstanceID)
		}
		if err != nil {
			return nil, fmt.Errorf("load module %d: %w", ref.InstanceID, err)
		}
		return []ContextRef{ref, Course(courseID), System()}, nil
	default:
		return nil, fmt.Errorf("%w: level %d", ErrContextNotFound, ref.Level)
	}
}
