package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// CourseModuleRepository reads activity placements.
type CourseModuleRepository interface {
	ByCourses(ctx context.Context, courseIDs []uint, moduleName string) ([]models.CourseModule, error)
	ByInstance(ctx context.Context, moduleName string, instanceID uint) (models.CourseModule, error)
	TrackedByCourse(ctx context.Context, courseID uint) ([]models.CourseModule, error)
	InstalledTypes(ctx context.Context) ([]string, error)
}

type courseModuleRepository struct {
	db *gorm.DB
}

// NewCourseModuleRepository constructs a course module repository.
func NewCourseModuleRepository(db *gorm.DB) CourseModuleRepository {
	return &courseModuleRepository{db: db}
}

func (r *courseModuleRepository) ByCourses(ctx context.Context, courseIDs []uint, moduleName string) ([]models.CourseModule, error) {
	if len(courseIDs) == 0 {
		return []models.CourseModule{}, nil
	}

	var modules []models.CourseModule
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND module_name = ?", courseIDs, moduleName).
		Order("id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// ByInstance returns gorm.ErrRecordNotFound when the instance is not placed in any course.
func (r *courseModuleRepository) ByInstance(ctx context.Context, moduleName string, instanceID uint) (models.CourseModule, error) {
	var cm models.CourseModule
	err := r.db.WithContext(ctx).
		Where("module_name = ? AND instance_id = ?", moduleName, instanceID).
		First(&cm).Error
	if err != nil {
		return models.CourseModule{}, err
	}
	return cm, nil
}

// TrackedByCourse lists modules with completion tracking enabled.
func (r *courseModuleRepository) TrackedByCourse(ctx context.Context, courseID uint) ([]models.CourseModule, error) {
	var modules []models.CourseModule
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND completion = ?", courseID, true).
		Order("id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// InstalledTypes lists module type names in ascending order.
func (r *courseModuleRepository) InstalledTypes(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&models.ModuleType{}).
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
