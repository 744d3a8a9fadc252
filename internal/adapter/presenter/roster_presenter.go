package presenter

import (
	"time"

	"github.com/johnquangdev/meeting-roster/internal/adapter/dto/common"
	"github.com/johnquangdev/meeting-roster/internal/adapter/dto/roster"
	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// ToParticipantResponse converts a Participant entity to ParticipantResponse DTO
func ToParticipantResponse(p entities.Participant) *roster.ParticipantResponse {
	return &roster.ParticipantResponse{
		ID:                   p.ID,
		DisplayName:          p.DisplayName,
		Role:                 string(p.Role),
		RoleLabel:            p.Role.DisplayName(),
		IsHost:               p.IsHost(),
		IsActive:             p.IsActive(),
		IsSpeaking:           p.IsSpeaking(),
		JoinTime:             p.JoinTime,
		LeaveTime:            p.LeaveTime,
		SpeakingTimeMs:       p.SpeakingAccumulatedMs,
		ParticipationPercent: p.ParticipationPercent,
	}
}

// ToParticipantListResponse converts the roster to ParticipantListResponse.
// With activeOnly, participants that left are omitted.
func ToParticipantListResponse(participants []entities.Participant, hostID string, activeOnly bool) *roster.ParticipantListResponse {
	responses := make([]*roster.ParticipantResponse, 0, len(participants))
	active := 0
	for _, p := range participants {
		if p.IsActive() {
			active++
		} else if activeOnly {
			continue
		}
		responses = append(responses, ToParticipantResponse(p))
	}

	return &roster.ParticipantListResponse{
		Participants: responses,
		HostID:       hostID,
		Active:       active,
		Total:        len(participants),
	}
}

// ToChangeEntryResponse converts a ChangeEntry to ChangeEntryResponse DTO
func ToChangeEntryResponse(e entities.ChangeEntry) *roster.ChangeEntryResponse {
	return &roster.ChangeEntryResponse{
		ID:      e.ID.String(),
		At:      e.At,
		Kind:    string(e.Kind),
		Message: e.Message,
		Line:    e.String(),
		Failure: e.Kind.IsFailure(),
		Repeats: e.Repeats,
	}
}

// ToChangeLogResponse converts ChangeLog entries, newest first. A
// positive limit keeps only the newest entries.
func ToChangeLogResponse(entries []entities.ChangeEntry, limit int) *roster.ChangeLogResponse {
	total := len(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	responses := make([]*roster.ChangeEntryResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToChangeEntryResponse(e)
	}

	return &roster.ChangeLogResponse{
		Entries: responses,
		Total:   total,
	}
}

// ToStatusResponse builds the session status
func ToStatusResponse(meetingID, source string, status entities.ConnectionStatus, hostID string, participants []entities.Participant, lastPush *time.Time) *roster.StatusResponse {
	active := 0
	for _, p := range participants {
		if p.IsActive() {
			active++
		}
	}

	return &roster.StatusResponse{
		MeetingID:    meetingID,
		Source:       source,
		Status:       status.String(),
		HostID:       hostID,
		Participants: len(participants),
		Active:       active,
		LastPushAt:   lastPush,
	}
}

// ToParticipantEventResponse converts a persisted event to its DTO
func ToParticipantEventResponse(e *entities.ParticipantEvent) *roster.ParticipantEventResponse {
	if e == nil {
		return nil
	}

	return &roster.ParticipantEventResponse{
		ID:            e.ID.String(),
		ParticipantID: e.ParticipantID,
		DisplayName:   e.DisplayName,
		Role:          string(e.Role),
		Kind:          string(e.Kind),
		OccurredAt:    e.OccurredAt,
	}
}

// ToEventListResponse converts a page of events to EventListResponse
func ToEventListResponse(events []*entities.ParticipantEvent, total int64, page, pageSize int) *roster.EventListResponse {
	responses := make([]*roster.ParticipantEventResponse, len(events))
	for i, e := range events {
		responses[i] = ToParticipantEventResponse(e)
	}

	return &roster.EventListResponse{
		Events:     responses,
		Pagination: common.NewPagination(total, page, pageSize),
	}
}
