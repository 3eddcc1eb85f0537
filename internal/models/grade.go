package models

import "time"

// GradeGrade is a participant's gradebook entry for a grade item of a course.
type GradeGrade struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	ItemID     uint      `gorm:"not null;index" json:"item_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	FinalGrade *float64  `json:"final_grade"`
	Feedback   string    `gorm:"type:text" json:"feedback"`
	Hidden     bool      `gorm:"not null;default:false" json:"hidden"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasGradeOrFeedback reports whether the row carries anything worth showing.
func (g GradeGrade) HasGradeOrFeedback() bool {
	return g.FinalGrade != nil || g.Feedback != ""
}
