package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionReport summarizes a roster session for export
type SessionReport struct {
	ID           uuid.UUID            `json:"id"`
	MeetingID    string               `json:"meeting_id"`
	StartedAt    time.Time            `json:"started_at"`
	EndedAt      time.Time            `json:"ended_at"`
	HostID       string               `json:"host_id,omitempty"`
	Participants []ParticipantMetrics `json:"participants"`
	ChangeLog    []ChangeEntry        `json:"change_log"`
}

// ParticipantMetrics is the per-participant part of a SessionReport
type ParticipantMetrics struct {
	ParticipantID        string          `json:"participant_id"`
	DisplayName          string          `json:"display_name"`
	Role                 ParticipantRole `json:"role"`
	JoinTime             time.Time       `json:"join_time"`
	LeaveTime            *time.Time      `json:"leave_time,omitempty"`
	SpeakingTimeMs       int64           `json:"speaking_time_ms"`
	ParticipationPercent float64         `json:"participation_percent"`
}

// MetricsOf extracts the reportable metrics of a participant
func MetricsOf(p Participant) ParticipantMetrics {
	return ParticipantMetrics{
		ParticipantID:        p.ID,
		DisplayName:          p.DisplayName,
		Role:                 p.Role,
		JoinTime:             p.JoinTime,
		LeaveTime:            p.LeaveTime,
		SpeakingTimeMs:       p.SpeakingAccumulatedMs,
		ParticipationPercent: p.ParticipationPercent,
	}
}
