package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeKind classifies ChangeLog entries
type ChangeKind string

const (
	ChangeKindJoin         ChangeKind = "join"
	ChangeKindLeave        ChangeKind = "leave"
	ChangeKindHostTransfer ChangeKind = "host_transfer"
	ChangeKindHostCleared  ChangeKind = "host_cleared"
	ChangeKindFetchFailed  ChangeKind = "fetch_failed"
	ChangeKindSinkFailed   ChangeKind = "sink_failed"
	ChangeKindStatus       ChangeKind = "status"
	ChangeKindInfo         ChangeKind = "info"
)

// IsFailure reports whether the entry records a failure
func (k ChangeKind) IsFailure() bool {
	return k == ChangeKindFetchFailed || k == ChangeKindSinkFailed
}

// ChangeEntry is one human-readable ChangeLog record. Repeats counts
// further occurrences of the same failure folded into the entry; At is
// the time of the latest one.
type ChangeEntry struct {
	ID      uuid.UUID  `json:"id"`
	At      time.Time  `json:"at"`
	Kind    ChangeKind `json:"kind"`
	Message string     `json:"message"`
	Repeats int        `json:"repeats,omitempty"`
}

// String renders the entry as "[15:04:05] message", with " (xN)"
// appended when the failure occurred N times.
func (e ChangeEntry) String() string {
	line := fmt.Sprintf("[%s] %s", e.At.Format("15:04:05"), e.Message)
	if e.Repeats > 0 {
		line += fmt.Sprintf(" (x%d)", e.Repeats+1)
	}
	return line
}
