package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// GroupRepository answers small-group membership questions.
type GroupRepository interface {
	IsMember(ctx context.Context, userID uint, groupID int64) (bool, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs a group repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) IsMember(ctx context.Context, userID uint, groupID int64) (bool, error) {
	if groupID <= 0 {
		return false, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}
