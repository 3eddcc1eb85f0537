package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// UserRepository provides read access to user records.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns gorm.ErrRecordNotFound for unknown or deleted users.
func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("deleted = ?", false).First(&user, id).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}
