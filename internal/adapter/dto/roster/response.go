package roster

import (
	"time"

	"github.com/johnquangdev/meeting-roster/internal/adapter/dto/common"
)

// ParticipantResponse represents a participant in responses
type ParticipantResponse struct {
	ID                   string     `json:"id"`
	DisplayName          string     `json:"display_name"`
	Role                 string     `json:"role"`
	RoleLabel            string     `json:"role_label"`
	IsHost               bool       `json:"is_host"`
	IsActive             bool       `json:"is_active"`
	IsSpeaking           bool       `json:"is_speaking"`
	JoinTime             time.Time  `json:"join_time"`
	LeaveTime            *time.Time `json:"leave_time,omitempty"`
	SpeakingTimeMs       int64      `json:"speaking_time_ms"`
	ParticipationPercent float64    `json:"participation_percent"`
}

// ParticipantListResponse represents the roster
type ParticipantListResponse struct {
	Participants []*ParticipantResponse `json:"participants"`
	HostID       string                 `json:"host_id,omitempty"`
	Active       int                    `json:"active"`
	Total        int                    `json:"total"`
}

// ChangeEntryResponse represents one ChangeLog entry
type ChangeEntryResponse struct {
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Line    string    `json:"line"`
	Failure bool      `json:"failure"`
	Repeats int       `json:"repeats,omitempty"`
}

// ChangeLogResponse represents the ChangeLog, newest first
type ChangeLogResponse struct {
	Entries []*ChangeEntryResponse `json:"entries"`
	Total   int                    `json:"total"`
}

// StatusResponse represents the session status
type StatusResponse struct {
	MeetingID    string     `json:"meeting_id"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	HostID       string     `json:"host_id,omitempty"`
	Participants int        `json:"participants"`
	Active       int        `json:"active"`
	LastPushAt   *time.Time `json:"last_push_at,omitempty"`
}

// ParticipantEventResponse represents a persisted join or leave
type ParticipantEventResponse struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	DisplayName   string    `json:"display_name"`
	Role          string    `json:"role"`
	Kind          string    `json:"kind"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventListResponse represents a page of the join/leave history
type EventListResponse struct {
	Events     []*ParticipantEventResponse `json:"events"`
	Pagination *common.PaginationResponse  `json:"pagination"`
}

// RefreshResponse reports whether a manual refresh was accepted
type RefreshResponse struct {
	Accepted bool `json:"accepted"`
}

// SnapshotAcceptedResponse acknowledges a pushed snapshot
type SnapshotAcceptedResponse struct {
	Participants int  `json:"participants"`
	Triggered    bool `json:"triggered"`
}
