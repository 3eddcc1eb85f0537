package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// UngradedRow is an activity instance with submissions awaiting a grade.
type UngradedRow struct {
	CourseID       uint
	CourseFullName string
	InstanceID     uint
	CourseModuleID uint
	Name           string
	OpenTime       *time.Time
	CloseTime      *time.Time
	Ungraded       int64
}

// GradingRepository reads grading backlogs of the supported module types.
type GradingRepository interface {
	UngradedAssignments(ctx context.Context, courseIDs []uint, since time.Time) ([]UngradedRow, error)
	SubmittedAssignments(ctx context.Context, assignmentID uint) (int64, error)
	UngradedQuizzes(ctx context.Context, courseIDs []uint, since time.Time) ([]UngradedRow, error)
	FinishedQuizAttempts(ctx context.Context, quizID uint) (int64, error)
}

type gradingRepository struct {
	db *gorm.DB
}

// NewGradingRepository constructs a grading repository.
func NewGradingRepository(db *gorm.DB) GradingRepository {
	return &gradingRepository{db: db}
}

// UngradedAssignments counts latest submitted submissions that have no grade
// or were modified after they were graded.
func (r *gradingRepository) UngradedAssignments(ctx context.Context, courseIDs []uint, since time.Time) ([]UngradedRow, error) {
	if len(courseIDs) == 0 {
		return []UngradedRow{}, nil
	}

	var rows []UngradedRow
	err := r.db.WithContext(ctx).
		Table("assignments AS a").
		Select(`a.course_id, c.full_name AS course_full_name, a.id AS instance_id, cm.id AS course_module_id,
			a.name, a.allow_submissions_from_date AS open_time, a.due_date AS close_time, COUNT(s.id) AS ungraded`).
		Joins("JOIN course_modules cm ON cm.instance_id = a.id AND cm.module_name = ?", "assign").
		Joins("JOIN courses c ON c.id = a.course_id").
		Joins("JOIN assignment_submissions s ON s.assignment_id = a.id AND s.latest = ? AND s.status = ?", true, models.SubmissionStatusSubmitted).
		Joins("LEFT JOIN assignment_grades g ON g.assignment_id = a.id AND g.user_id = s.user_id").
		Where("a.course_id IN ? AND s.modified > ?", courseIDs, since.UTC()).
		Where("(g.id IS NULL OR g.grade IS NULL OR g.modified < s.modified)").
		Group("a.course_id, c.full_name, a.id, cm.id, a.name, a.allow_submissions_from_date, a.due_date").
		Order("a.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query ungraded assignments: %w", err)
	}
	if rows == nil {
		rows = []UngradedRow{}
	}
	return rows, nil
}

func (r *gradingRepository) SubmittedAssignments(ctx context.Context, assignmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AssignmentSubmission{}).
		Where("assignment_id = ? AND latest = ? AND status = ?", assignmentID, true, models.SubmissionStatusSubmitted).
		Count(&count).Error
	return count, err
}

// UngradedQuizzes counts finished attempts still waiting for manual grading.
func (r *gradingRepository) UngradedQuizzes(ctx context.Context, courseIDs []uint, since time.Time) ([]UngradedRow, error) {
	if len(courseIDs) == 0 {
		return []UngradedRow{}, nil
	}

	var rows []UngradedRow
	err := r.db.WithContext(ctx).
		Table("quizzes AS q").
		Select(`q.course_id, c.full_name AS course_full_name, q.id AS instance_id, cm.id AS course_module_id,
			q.name, q.time_open AS open_time, q.time_close AS close_time, COUNT(qa.id) AS ungraded`).
		Joins("JOIN course_modules cm ON cm.instance_id = q.id AND cm.module_name = ?", "quiz").
		Joins("JOIN courses c ON c.id = q.course_id").
		Joins("JOIN quiz_attempts qa ON qa.quiz_id = q.id AND qa.state = ? AND qa.preview = ?", models.QuizAttemptFinished, false).
		Where("q.course_id IN ? AND qa.sum_grades IS NULL AND qa.time_finish > ?", courseIDs, since.UTC()).
		Group("q.course_id, c.full_name, q.id, cm.id, q.name, q.time_open, q.time_close").
		Order("q.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query ungraded quizzes: %w", err)
	}
	if rows == nil {
		rows = []UngradedRow{}
	}
	return rows, nil
}

// FinishedQuizAttempts counts participants with at least one finished attempt.
func (r *gradingRepository) FinishedQuizAttempts(ctx context.Context, quizID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ? AND state = ? AND preview = ?", quizID, models.QuizAttemptFinished, false).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
