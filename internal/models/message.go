package models

import "time"

// Message is a direct message between two users. Notifications and messages
// carrying a ContextURL are emitted by the platform rather than people.
type Message struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SenderID           uint      `gorm:"not null;index" json:"sender_id"`
	RecipientID        uint      `gorm:"not null;index:idx_message_recipient" json:"recipient_id"`
	Subject            string    `gorm:"size:255" json:"subject"`
	FullMessage        string    `gorm:"type:text" json:"full_message"`
	SmallMessage       string    `gorm:"type:text" json:"small_message"`
	ContextURL         *string   `gorm:"size:512" json:"context_url"`
	Notification       bool      `gorm:"not null;default:false" json:"notification"`
	Read               bool      `gorm:"column:is_read;not null;default:false" json:"read"`
	DeletedByRecipient bool      `gorm:"not null;default:false" json:"-"`
	CreatedAt          time.Time `gorm:"index:idx_message_recipient" json:"created_at"`
}
