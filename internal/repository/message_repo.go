package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MessageRow is a received message joined with its sender.
type MessageRow struct {
	ID              uint
	SenderID        uint
	SenderFirstName string
	SenderLastName  string
	SenderUsername  string
	Subject         string
	SmallMessage    string
	FullMessage     string
	IsRead          bool
	CreatedAt       time.Time
}

// MessageRepository reads direct messages.
type MessageRepository interface {
	Received(ctx context.Context, userID uint, since time.Time, limit int) ([]MessageRow, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Received lists read and unread person-to-person messages newest first.
// Messages with a context URL, deleted by the recipient or sent by a
// deleted user are excluded.
func (r *messageRepository) Received(ctx context.Context, userID uint, since time.Time, limit int) ([]MessageRow, error) {
	query := r.db.WithContext(ctx).
		Table("messages AS m").
		Select(`m.id, m.sender_id, u.first_name AS sender_first_name, u.last_name AS sender_last_name,
			u.username AS sender_username, m.subject, m.small_message, m.full_message, m.is_read, m.created_at`).
		Joins("JOIN users u ON u.id = m.sender_id AND u.deleted = ?", false).
		Where("m.recipient_id = ? AND m.notification = ? AND m.deleted_by_recipient = ?", userID, false, false).
		Where("m.context_url IS NULL AND m.created_at > ?", since.UTC()).
		Order("m.created_at DESC, m.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []MessageRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	if rows == nil {
		rows = []MessageRow{}
	}
	return rows, nil
}
