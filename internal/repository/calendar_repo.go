package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-activity-api/internal/models"
)

// CalendarRepository reads course calendar events.
type CalendarRepository interface {
	EventsInRange(ctx context.Context, start, end time.Time, courseIDs []uint) ([]models.CalendarEvent, error)
}

type calendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

// EventsInRange returns visible course events starting within [start, end],
// ordered by start time then id.
func (r *calendarRepository) EventsInRange(ctx context.Context, start, end time.Time, courseIDs []uint) ([]models.CalendarEvent, error) {
	if len(courseIDs) == 0 {
		return []models.CalendarEvent{}, nil
	}

	var events []models.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("course_id IN ? AND visible = ?", courseIDs, true).
		Where("time_start >= ? AND time_start <= ?", start.UTC(), end.UTC()).
		Order("time_start ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
