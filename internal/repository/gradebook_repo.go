package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// GradebookRepository reads gradebook entries and completion states.
type GradebookRepository interface {
	Grades(ctx context.Context, userID, courseID uint) ([]models.GradeGrade, error)
	Completions(ctx context.Context, userID uint, courseModuleIDs []uint) (map[uint]models.CourseModuleCompletion, error)
	Course(ctx context.Context, courseID uint) (models.Course, error)
}

type gradebookRepository struct {
	db *gorm.DB
}

// NewGradebookRepository constructs a gradebook repository.
func NewGradebookRepository(db *gorm.DB) GradebookRepository {
	return &gradebookRepository{db: db}
}

func (r *gradebookRepository) Grades(ctx context.Context, userID, courseID uint) ([]models.GradeGrade, error) {
	var grades []models.GradeGrade
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("item_id ASC").
		Find(&grades).Error
	if err != nil {
		return nil, err
	}
	return grades, nil
}

// Completions is keyed by course module id.
func (r *gradebookRepository) Completions(ctx context.Context, userID uint, courseModuleIDs []uint) (map[uint]models.CourseModuleCompletion, error) {
	result := make(map[uint]models.CourseModuleCompletion, len(courseModuleIDs))
	if len(courseModuleIDs) == 0 {
		return result, nil
	}

	var completions []models.CourseModuleCompletion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_module_id IN ?", userID, courseModuleIDs).
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	for _, completion := range completions {
		result[completion.CourseModuleID] = completion
	}
	return result, nil
}

// Course returns gorm.ErrRecordNotFound for unknown courses.
func (r *gradebookRepository) Course(ctx context.Context, courseID uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, courseID).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}
