package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/domain/repositories"
)

const defaultEventPageSize = 100

// participantEventRepository implements the ParticipantEventRepository interface
type participantEventRepository struct {
	db *gorm.DB
}

// NewParticipantEventRepository creates a new participant event repository
func NewParticipantEventRepository(db *gorm.DB) repositories.ParticipantEventRepository {
	return &participantEventRepository{db: db}
}

// Create stores one event
func (r *participantEventRepository) Create(ctx context.Context, event *entities.ParticipantEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByMeeting returns events of a meeting, oldest first
func (r *participantEventRepository) ListByMeeting(ctx context.Context, meetingID string, filters repositories.ParticipantEventFilters) ([]*entities.ParticipantEvent, error) {
	var events []*entities.ParticipantEvent
	err := r.filtered(ctx, meetingID, filters).Find(&events).Error
	return events, err
}

// CountByMeeting counts events of a meeting matching filters. Limit and
// Offset are ignored.
func (r *participantEventRepository) CountByMeeting(ctx context.Context, meetingID string, filters repositories.ParticipantEventFilters) (int64, error) {
	var count int64
	err := r.matching(ctx, meetingID, filters).Count(&count).Error
	return count, err
}

// matching applies the meeting and filter conditions only
func (r *participantEventRepository) matching(ctx context.Context, meetingID string, filters repositories.ParticipantEventFilters) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&entities.ParticipantEvent{}).
		Where("meeting_id = ?", meetingID)

	if filters.ParticipantID != "" {
		query = query.Where("participant_id = ?", filters.ParticipantID)
	}
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.Since != nil {
		query = query.Where("occurred_at >= ?", *filters.Since)
	}
	return query
}

func (r *participantEventRepository) filtered(ctx context.Context, meetingID string, filters repositories.ParticipantEventFilters) *gorm.DB {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultEventPageSize
	}

	return r.matching(ctx, meetingID, filters).
		Order("occurred_at ASC").
		Limit(limit).
		Offset(filters.Offset)
}
