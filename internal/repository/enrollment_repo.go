package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// EnrollmentRepository answers enrolment questions for the aggregation engine.
type EnrollmentRepository interface {
	Enrollment(ctx context.Context, userID, courseID uint) (models.Enrollment, error)
	EnrolledCourses(ctx context.Context, userID uint, includeInactive bool, now time.Time) ([]models.Course, error)
	CountParticipants(ctx context.Context, courseID uint, capability string, now time.Time) (int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository constructs an enrollment repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Enrollment(ctx context.Context, userID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}
	return enrollment, nil
}

// EnrolledCourses lists the user's courses ordered by id.
func (r *enrollmentRepository) EnrolledCourses(ctx context.Context, userID uint, includeInactive bool, now time.Time) ([]models.Course, error) {
	enrolled := r.db.WithContext(ctx).
		Table("enrollments AS e").
		Select("e.course_id").
		Where("e.user_id = ?", userID)

	if !includeInactive {
		enrolled = activeEnrollment(enrolled, now)
	}

	var courses []models.Course
	if err := r.db.WithContext(ctx).Where("id IN (?)", enrolled).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

// CountParticipants counts actively enrolled users. When capability is set
// only users allowed it in the course, and not prohibited, are counted.
func (r *enrollmentRepository) CountParticipants(ctx context.Context, courseID uint, capability string, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Table("enrollments AS e").
		Joins("JOIN users u ON u.id = e.user_id AND u.deleted = ?", false).
		Where("e.course_id = ?", courseID)
	query = activeEnrollment(query, now)

	if capability != "" {
		const holds = `SELECT 1 FROM role_assignments ra
			JOIN role_capabilities rc ON rc.role_id = ra.role_id
			WHERE ra.user_id = e.user_id AND rc.capability = ? AND rc.permission = ?
			AND ((ra.context_level = ? AND ra.instance_id = ?) OR ra.context_level = ?)`
		query = query.
			Where("EXISTS ("+holds+")", capability, models.PermissionAllow, models.ContextLevelCourse, courseID, models.ContextLevelSystem).
			Where("NOT EXISTS ("+holds+")", capability, models.PermissionProhibit, models.ContextLevelCourse, courseID, models.ContextLevelSystem)
	}

	var count int64
	if err := query.Distinct("e.user_id").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func activeEnrollment(query *gorm.DB, now time.Time) *gorm.DB {
	now = now.UTC()
	return query.
		Where("e.status = ?", models.EnrollmentStatusActive).
		Where("(e.time_start IS NULL OR e.time_start <= ?)", now).
		Where("(e.time_end IS NULL OR e.time_end >= ?)", now)
}
