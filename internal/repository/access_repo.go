package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// AccessRepository exposes the role tables used for capability evaluation.
type AccessRepository interface {
	IsSiteAdmin(ctx context.Context, userID uint) (bool, error)
	CourseExists(ctx context.Context, courseID uint) (bool, error)
	ModuleCourseID(ctx context.Context, courseModuleID uint) (uint, error)
	Permissions(ctx context.Context, userID uint, capability string, contexts []models.ContextRef) ([]int, error)
}

type accessRepository struct {
	db *gorm.DB
}

// NewAccessRepository constructs an access repository.
func NewAccessRepository(db *gorm.DB) AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) IsSiteAdmin(ctx context.Context, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND site_admin = ? AND deleted = ?", userID, true, false).
		Count(&count).Error
	return count > 0, err
}

func (r *accessRepository) CourseExists(ctx context.Context, courseID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", courseID).Count(&count).Error
	return count > 0, err
}

// ModuleCourseID returns gorm.ErrRecordNotFound for unknown course modules.
func (r *accessRepository) ModuleCourseID(ctx context.Context, courseModuleID uint) (uint, error) {
	var cm models.CourseModule
	if err := r.db.WithContext(ctx).Select("id", "course_id").First(&cm, courseModuleID).Error; err != nil {
		return 0, err
	}
	return cm.CourseID, nil
}

// Permissions lists the permission of every role the user holds in any of
// the given contexts for the capability.
func (r *accessRepository) Permissions(ctx context.Context, userID uint, capability string, contexts []models.ContextRef) ([]int, error) {
	if len(contexts) == 0 {
		return nil, nil
	}

	conditions := make([]string, 0, len(contexts))
	args := make([]any, 0, len(contexts)*2)
	for _, ref := range contexts {
		conditions = append(conditions, "(ra.context_level = ? AND ra.instance_id = ?)")
		args = append(args, ref.Level, ref.InstanceID)
	}

	var permissions []int
	err := r.db.WithContext(ctx).
		Table("role_assignments AS ra").
		Select("rc.permission").
		Joins("JOIN role_capabilities rc ON rc.role_id = ra.role_id").
		Where("ra.user_id = ? AND rc.capability = ?", userID, capability).
		Where("("+strings.Join(conditions, " OR ")+")", args...).
		Scan(&permissions).Error
	if err != nil {
		return nil, err
	}

	return permissions, nil
}
