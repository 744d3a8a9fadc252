package repositories

import (
	"context"
	"time"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// ParticipantEventFilters narrows a history query
type ParticipantEventFilters struct {
	ParticipantID string
	Kind          *entities.RosterEventKind
	Since         *time.Time
	Limit         int
	Offset        int
}

// ParticipantEventRepository defines the interface for join/leave history
type ParticipantEventRepository interface {
	// Create stores one event
	Create(ctx context.Context, event *entities.ParticipantEvent) error

	// ListByMeeting returns events of a meeting, oldest first
	ListByMeeting(ctx context.Context, meetingID string, filters ParticipantEventFilters) ([]*entities.ParticipantEvent, error)

	// CountByMeeting counts events of a meeting matching filters,
	// ignoring Limit and Offset
	CountByMeeting(ctx context.Context, meetingID string, filters ParticipantEventFilters) (int64, error)
}
