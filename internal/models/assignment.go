package models

import "time"

// Assignment is an activity where participants hand in work for grading.
type Assignment struct {
	ID                         uint       `gorm:"primaryKey" json:"id"`
	CourseID                   uint       `gorm:"not null;index" json:"course_id"`
	Name                       string     `gorm:"size:255;not null" json:"name"`
	AllowSubmissionsFromDate   *time.Time `json:"allow_submissions_from_date"`
	DueDate                    *time.Time `json:"due_date"`
	TeamSubmission             bool       `gorm:"not null;default:false" json:"team_submission"`
	RequireSubmissionStatement bool       `gorm:"not null;default:false" json:"-"`
	CreatedAt                  time.Time  `json:"created_at"`
	UpdatedAt                  time.Time  `json:"updated_at"`
}

// Submission statuses for assignments.
const (
	SubmissionStatusNew       = "new"
	SubmissionStatusDraft     = "draft"
	SubmissionStatusSubmitted = "submitted"
)

// AssignmentSubmission stores the latest attempt of a participant.
type AssignmentSubmission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Status       string    `gorm:"size:32;not null" json:"status"`
	Latest       bool      `gorm:"not null" json:"latest"`
	Modified     time.Time `gorm:"not null" json:"modified"`
	CreatedAt    time.Time `json:"created_at"`
}

// AssignmentGrade records a grader's decision for a submission.
type AssignmentGrade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Grade        *float64  `json:"grade"`
	Modified     time.Time `gorm:"not null" json:"modified"`
}
