package models

import "time"

// Course groups activities and enrolled participants.
type Course struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ShortName        string    `gorm:"size:100;not null" json:"short_name"`
	FullName         string    `gorm:"size:255;not null" json:"full_name"`
	ShowGrades       bool      `gorm:"not null" json:"show_grades"`
	EnableCompletion bool      `gorm:"not null;default:false" json:"enable_completion"`
	Visible          bool      `gorm:"not null" json:"visible"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusSuspended EnrollmentStatus = "suspended"
)

// Enrollment links a user to a course.
type Enrollment struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID  uint             `gorm:"not null;uniqueIndex:idx_enrollment_user_course;index" json:"course_id"`
	Status    EnrollmentStatus `gorm:"size:16;not null" json:"status"`
	TimeStart *time.Time       `json:"time_start"`
	TimeEnd   *time.Time       `json:"time_end"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsActive reports whether the enrollment grants access at the reference time.
func (e Enrollment) IsActive(reference time.Time) bool {
	if e.Status != EnrollmentStatusActive {
		return false
	}
	if e.TimeStart != nil && reference.Before(*e.TimeStart) {
		return false
	}
	if e.TimeEnd != nil && !e.TimeEnd.IsZero() && reference.After(*e.TimeEnd) {
		return false
	}
	return true
}

// ModuleType is an installed activity-module plugin, e.g. "assign" or "forum".
type ModuleType struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Visible bool   `gorm:"not null" json:"visible"`
}

// Group modes of a course module.
const (
	GroupModeNone     = 0
	GroupModeSeparate = 1
	GroupModeVisible  = 2
)

// CourseModule places an activity instance inside a course.
type CourseModule struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	ModuleName string    `gorm:"size:64;not null;index:idx_course_module_instance" json:"module_name"`
	InstanceID uint      `gorm:"not null;index:idx_course_module_instance" json:"instance_id"`
	Visible    bool      `gorm:"not null" json:"visible"`
	GroupMode  int       `gorm:"not null;default:0" json:"group_mode"`
	Completion bool      `gorm:"not null;default:false" json:"completion"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SeparateGroups reports whether content is restricted to group co-members.
func (cm CourseModule) SeparateGroups() bool {
	return cm.GroupMode == GroupModeSeparate
}

// Group is a small set of participants inside a course.
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMember records a user's membership of a group.
type GroupMember struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	GroupID uint `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID  uint `gorm:"not null;uniqueIndex:idx_group_member" json:"user_id"`
}

// Completion states tracked per course module and user.
const (
	CompletionIncomplete   = 0
	CompletionComplete     = 1
	CompletionCompletePass = 2
	CompletionCompleteFail = 3
)

// CourseModuleCompletion stores a user's completion state for an activity.
type CourseModuleCompletion struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CourseModuleID uint      `gorm:"not null;uniqueIndex:idx_cm_completion" json:"course_module_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_cm_completion" json:"user_id"`
	State          int       `gorm:"not null;default:0" json:"state"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsComplete reports whether the state counts towards completion progress.
func (c CourseModuleCompletion) IsComplete() bool {
	return c.State == CompletionComplete || c.State == CompletionCompletePass
}
