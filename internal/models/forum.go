package models

import "time"

// Forum is a standard discussion forum. Posts are never anonymous.
type Forum struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ForumDiscussion represents a discussion topic within a standard forum.
type ForumDiscussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"not null;index" json:"forum_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	GroupID   int64     `gorm:"not null" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumPost represents a reply within a standard forum discussion.
type ForumPost struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DiscussionID uint      `gorm:"not null;index" json:"discussion_id"`
	ParentID     uint      `gorm:"not null;default:0" json:"parent_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Subject      string    `gorm:"size:255" json:"subject"`
	Message      string    `gorm:"type:text" json:"message"`
	Modified     time.Time `gorm:"not null;index" json:"modified"`
	CreatedAt    time.Time `json:"created_at"`
}

// Anonymity levels for advanced forums.
const (
	AnonymityNone     = 0
	AnonymityOptional = 1
)

// AdvancedForum is a forum kind supporting private replies and anonymous posting.
type AdvancedForum struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Anonymous int       `gorm:"not null;default:0" json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdvancedForumDiscussion represents a discussion topic within an advanced forum.
type AdvancedForumDiscussion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"not null;index" json:"forum_id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	GroupID   int64     `gorm:"not null" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AdvancedForumPost extends the standard post with private replies and author reveal.
type AdvancedForumPost struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DiscussionID   uint      `gorm:"not null;index" json:"discussion_id"`
	ParentID       uint      `gorm:"not null;default:0" json:"parent_id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Subject        string    `gorm:"size:255" json:"subject"`
	Message        string    `gorm:"type:text" json:"message"`
	PrivateReplyTo uint      `gorm:"not null;default:0" json:"private_reply_to"`
	Reveal         bool      `gorm:"not null;default:false" json:"reveal"`
	Modified       time.Time `gorm:"not null;index" json:"modified"`
	CreatedAt      time.Time `json:"created_at"`
}
