package models

import "time"

// Quiz is an activity composed of question attempts.
type Quiz struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CourseID  uint       `gorm:"not null;index" json:"course_id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	TimeOpen  *time.Time `json:"time_open"`
	TimeClose *time.Time `json:"time_close"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Quiz attempt states.
const (
	QuizAttemptInProgress = "inprogress"
	QuizAttemptFinished   = "finished"
)

// QuizAttempt stores one attempt of a participant. A finished attempt without
// SumGrades still needs manual grading.
type QuizAttempt struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	QuizID     uint       `gorm:"not null;index" json:"quiz_id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	State      string     `gorm:"size:16;not null" json:"state"`
	SumGrades  *float64   `json:"sum_grades"`
	TimeFinish *time.Time `json:"time_finish"`
	Preview    bool       `gorm:"not null;default:false" json:"preview"`
}
