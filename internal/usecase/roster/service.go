package roster

import (
	"context"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// SnapshotProvider returns the full current roster of the meeting.
// A failed fetch skips the cycle that requested it.
type SnapshotProvider interface {
	FetchParticipants(ctx context.Context) ([]entities.RawRecord, error)
}

// Subscription delivers "something changed" signals until Unsubscribe is called.
type Subscription interface {
	Events() <-chan struct{}
	Unsubscribe()
}

// ChangeEventSource is a push-style source of no-payload change signals
type ChangeEventSource interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// RosterSink receives join and leave notifications. Delivery is
// fire-and-forget: errors are logged, never retried.
type RosterSink interface {
	Notify(ctx context.Context, event entities.RosterEvent) error
}

// Initializer negotiates capabilities with the meeting platform before
// the session starts. A failure is fatal for the session.
type Initializer interface {
	Init(ctx context.Context) error
}

// ReportUploader exports the session report on teardown
type ReportUploader interface {
	UploadReport(ctx context.Context, report *entities.SessionReport) (string, error)
}

// Service defines the read and control surface of a roster session
type Service interface {
	// Start negotiates capabilities and starts the poll, push and speaking loops
	Start(ctx context.Context) error

	// Stop tears the session down, letting any in-flight pass finish
	Stop(ctx context.Context) error

	// Trigger requests a reconciliation; false if the session no longer accepts triggers
	Trigger(source TriggerSource) bool

	// Participants returns a copy of the roster in first-observed order
	Participants() []entities.Participant

	// Participant returns one participant by id
	Participant(id string) (entities.Participant, bool)

	// Entries returns ChangeLog entries, newest first
	Entries() []entities.ChangeEntry

	// Status returns the connection status
	Status() entities.ConnectionStatus

	// HostID returns the tracked host id, empty if none
	HostID() string

	// Report builds a report of the session so far
	Report() *entities.SessionReport
}

// Ensure Session implements Service interface
var _ Service = (*Session)(nil)
