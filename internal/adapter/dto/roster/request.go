package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
)

// ZoomAppSnapshotRequest is the roster pushed by the in-meeting Zoom App
// client after it called getMeetingParticipants. An empty list means
// everyone left.
type ZoomAppSnapshotRequest struct {
	Participants []ZoomAppParticipant `json:"participants" validate:"required,max=1000,dive"`
}

// ZoomAppParticipant accepts the field spellings of the Zoom Apps SDK:
// participantUUID or participantId, displayName or screenName, and a
// role sent either as a code or as a name. The snake_case names it is
// encoded with are accepted as well.
type ZoomAppParticipant struct {
	ParticipantID string `json:"participant_id" validate:"required,max=255"`
	DisplayName   string `json:"display_name" validate:"max=255"`
	Role          string `json:"role"`
	IsSpeaking    bool   `json:"is_speaking"`
}

type zoomAppParticipantJSON struct {
	ParticipantUUID string          `json:"participantUUID"`
	ParticipantID   json.RawMessage `json:"participantId"`
	DisplayName     string          `json:"displayName"`
	ScreenName      string          `json:"screenName"`
	Role            json.RawMessage `json:"role"`
	IsSpeaking      bool            `json:"isSpeaking"`

	SnakeID       json.RawMessage `json:"participant_id"`
	SnakeName     string          `json:"display_name"`
	SnakeSpeaking bool            `json:"is_speaking"`
}

// UnmarshalJSON implements json.Unmarshaler
func (p *ZoomAppParticipant) UnmarshalJSON(data []byte) error {
	var raw zoomAppParticipantJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id := raw.ParticipantUUID
	if id == "" {
		var err error
		if id, err = scalarString(raw.ParticipantID); err != nil {
			return fmt.Errorf("participantId: %w", err)
		}
	}
	if id == "" {
		var err error
		if id, err = scalarString(raw.SnakeID); err != nil {
			return fmt.Errorf("participant_id: %w", err)
		}
	}

	role, err := scalarString(raw.Role)
	if err != nil {
		return fmt.Errorf("role: %w", err)
	}

	name := raw.DisplayName
	if name == "" {
		name = raw.ScreenName
	}
	if name == "" {
		name = raw.SnakeName
	}

	*p = ZoomAppParticipant{
		ParticipantID: id,
		DisplayName:   name,
		Role:          role,
		IsSpeaking:    raw.IsSpeaking || raw.SnakeSpeaking,
	}
	return nil
}

// ToRawRecord normalizes the participant. Unknown roles are kept as
// regular participants.
func (p ZoomAppParticipant) ToRawRecord() entities.RawRecord {
	code, _ := entities.ParseRoleCode(p.Role)
	return entities.RawRecord{
		ID:          p.ParticipantID,
		DisplayName: p.DisplayName,
		RoleCode:    code,
		IsSpeaking:  p.IsSpeaking,
	}
}

// Records returns the snapshot as raw records, keeping the first
// occurrence of a repeated id
func (r *ZoomAppSnapshotRequest) Records() ([]entities.RawRecord, error) {
	seen := make(map[string]struct{}, len(r.Participants))
	records := make([]entities.RawRecord, 0, len(r.Participants))
	for i, p := range r.Participants {
		if p.ParticipantID == "" {
			return nil, fmt.Errorf("%w: participant %d has no id", usecaseErrors.ErrInvalidRecord, i)
		}
		if _, dup := seen[p.ParticipantID]; dup {
			continue
		}
		seen[p.ParticipantID] = struct{}{}
		records = append(records, p.ToRawRecord())
	}
	return records, nil
}

// ListEventsRequest represents query parameters for the join/leave history
type ListEventsRequest struct {
	ParticipantID string     `query:"participant_id" validate:"omitempty,max=255"`
	Kind          *string    `query:"kind" validate:"omitempty,oneof=join leave"`
	Since         *time.Time `query:"since"`
	Page          int        `query:"page" validate:"min=1"`
	PageSize      int        `query:"page_size" validate:"min=1,max=100"`
}

// ChangeLogRequest represents query parameters for the ChangeLog
type ChangeLogRequest struct {
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// scalarString accepts a JSON string or number
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	return n.String(), nil
}
