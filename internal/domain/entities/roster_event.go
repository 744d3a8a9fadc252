package entities

import "time"

// HostTransfer signals that the identity holding the host role changed.
// FromID is empty when no host was tracked before.
type HostTransfer struct {
	FromID string `json:"from_id,omitempty"`
	ToID   string `json:"to_id"`
}

// ReconcileResult is the outcome of applying one snapshot to the roster
type ReconcileResult struct {
	Joined       []Participant `json:"joined"`
	Left         []Participant `json:"left"`
	HostTransfer *HostTransfer `json:"host_transfer,omitempty"`
}

// IsEmpty reports whether the reconcile changed nothing
func (r ReconcileResult) IsEmpty() bool {
	return len(r.Joined) == 0 && len(r.Left) == 0 && r.HostTransfer == nil
}

// RosterEventKind is the kind of transition forwarded to a roster sink
type RosterEventKind string

const (
	RosterEventJoin  RosterEventKind = "join"
	RosterEventLeave RosterEventKind = "leave"
)

// RosterEvent is a join or leave notification
type RosterEvent struct {
	Kind        RosterEventKind `json:"kind"`
	MeetingID   string          `json:"meeting_id"`
	Participant Participant     `json:"participant"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
