package entities

import (
	"time"
)

// ParticipantRole represents the role of a participant in a meeting
type ParticipantRole string

const (
	ParticipantRoleHost        ParticipantRole = "host"
	ParticipantRoleCoHost      ParticipantRole = "co_host"
	ParticipantRoleParticipant ParticipantRole = "participant"
)

// Role codes reported by the meeting SDK.
const (
	RoleCodeParticipant = 0
	RoleCodeHost        = 1
	RoleCodeCoHost      = 2
)

// RoleFromCode maps an SDK role code to a ParticipantRole.
// Unknown codes are treated as a regular participant.
func RoleFromCode(code int) ParticipantRole {
	switch code {
	case RoleCodeHost:
		return ParticipantRoleHost
	case RoleCodeCoHost:
		return ParticipantRoleCoHost
	default:
		return ParticipantRoleParticipant
	}
}

// DisplayName returns the human label for the role
func (r ParticipantRole) DisplayName() string {
	switch r {
	case ParticipantRoleHost:
		return "Host"
	case ParticipantRoleCoHost:
		return "Co-Host"
	default:
		return "Participant"
	}
}

// Participant is one entry of the roster. Entries are never deleted;
// a participant that leaves keeps its metrics and gets LeaveTime set.
type Participant struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Role        ParticipantRole `json:"role"`

	// JoinTime is the first time the participant was observed, not the
	// provider's join timestamp.
	JoinTime  time.Time  `json:"join_time"`
	LeaveTime *time.Time `json:"leave_time,omitempty"`

	SpeakingAccumulatedMs int64      `json:"speaking_accumulated_ms"`
	SpeakingStartedAt     *time.Time `json:"speaking_started_at,omitempty"`
	ParticipationPercent  float64    `json:"participation_percent"`

	// SpeakingAccruedAt marks how far the current speaking interval has
	// already been added to SpeakingAccumulatedMs.
	SpeakingAccruedAt *time.Time `json:"-"`
}

// NewParticipant creates a participant first observed at the given time
func NewParticipant(record RawRecord, observedAt time.Time) *Participant {
	return &Participant{
		ID:          record.ID,
		DisplayName: record.DisplayName,
		Role:        RoleFromCode(record.RoleCode),
		JoinTime:    observedAt,
	}
}

// IsHost checks if the participant currently holds the host role
func (p *Participant) IsHost() bool {
	return p.Role == ParticipantRoleHost
}

// IsActive checks if the participant is still in the meeting
func (p *Participant) IsActive() bool {
	return p.LeaveTime == nil
}

// IsSpeaking reports whether the latest sample marked the participant as speaking
func (p *Participant) IsSpeaking() bool {
	return p.SpeakingStartedAt != nil
}

// Leave marks the participant as left. It returns false if the
// participant had already left; LeaveTime is set only once.
func (p *Participant) Leave(at time.Time) bool {
	if p.LeaveTime != nil {
		return false
	}
	p.StopSpeaking(at)
	p.LeaveTime = &at
	return true
}

// StartSpeaking opens a speaking interval. No-op if one is already open.
func (p *Participant) StartSpeaking(at time.Time) bool {
	if p.SpeakingStartedAt != nil {
		return false
	}
	p.SpeakingStartedAt = &at
	p.SpeakingAccruedAt = &at
	return true
}

// Accrue adds d to the accumulator for an open speaking interval.
func (p *Participant) Accrue(d time.Duration, at time.Time) {
	if p.SpeakingStartedAt == nil || d <= 0 {
		return
	}
	p.SpeakingAccumulatedMs += d.Milliseconds()
	p.SpeakingAccruedAt = &at
}

// StopSpeaking closes the open speaking interval, adding the part that
// has not been accrued yet.
func (p *Participant) StopSpeaking(at time.Time) bool {
	if p.SpeakingStartedAt == nil {
		return false
	}
	from := *p.SpeakingStartedAt
	if p.SpeakingAccruedAt != nil {
		from = *p.SpeakingAccruedAt
	}
	if elapsed := at.Sub(from); elapsed > 0 {
		p.SpeakingAccumulatedMs += elapsed.Milliseconds()
	}
	p.SpeakingStartedAt = nil
	p.SpeakingAccruedAt = nil
	return true
}

// Clone returns a deep copy safe to hand to readers outside the store
func (p *Participant) Clone() Participant {
	c := *p
	if p.LeaveTime != nil {
		t := *p.LeaveTime
		c.LeaveTime = &t
	}
	if p.SpeakingStartedAt != nil {
		t := *p.SpeakingStartedAt
		c.SpeakingStartedAt = &t
	}
	if p.SpeakingAccruedAt != nil {
		t := *p.SpeakingAccruedAt
		c.SpeakingAccruedAt = &t
	}
	return c
}
