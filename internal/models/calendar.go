package models

import "time"

// Calendar event types. Course events are not tied to an activity.
const (
	EventTypeCourse = "course"
	EventTypeDue    = "due"
	EventTypeClose  = "close"
	EventTypeOpen   = "open"
	EventTypeUser   = "user"
)

// CalendarEvent is a dated entry on a course or user calendar.
type CalendarEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	UserID     uint      `gorm:"not null;default:0" json:"user_id"`
	ModuleName string    `gorm:"size:64" json:"module_name"`
	InstanceID uint      `gorm:"not null;default:0" json:"instance_id"`
	EventType  string    `gorm:"size:32;not null" json:"event_type"`
	TimeStart  time.Time `gorm:"not null;index" json:"time_start"`
	Visible    bool      `gorm:"not null" json:"visible"`
}
