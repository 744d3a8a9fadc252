package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ParticipantEvent is the persisted form of a RosterEvent
type ParticipantEvent struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID     string          `gorm:"type:varchar(255);not null;index" json:"meeting_id"`
	ParticipantID string          `gorm:"type:varchar(255);not null;index" json:"participant_id"`
	DisplayName   string          `gorm:"type:varchar(255)" json:"display_name"`
	Role          ParticipantRole `gorm:"type:varchar(20);default:'participant'" json:"role"`
	Kind          RosterEventKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	OccurredAt    time.Time       `gorm:"not null;index" json:"occurred_at"`
	Payload       datatypes.JSON  `gorm:"type:jsonb;default:'{}'" json:"payload,omitempty"`
	CreatedAt     time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for ParticipantEvent
func (ParticipantEvent) TableName() string {
	return "participant_events"
}

// NewParticipantEvent builds the persisted row for a roster event
func NewParticipantEvent(event RosterEvent) (*ParticipantEvent, error) {
	payload, err := json.Marshal(event.Participant)
	if err != nil {
		return nil, err
	}
	return &ParticipantEvent{
		ID:            uuid.New(),
		MeetingID:     event.MeetingID,
		ParticipantID: event.Participant.ID,
		DisplayName:   event.Participant.DisplayName,
		Role:          event.Participant.Role,
		Kind:          event.Kind,
		OccurredAt:    event.OccurredAt,
		Payload:       datatypes.JSON(payload),
	}, nil
}
