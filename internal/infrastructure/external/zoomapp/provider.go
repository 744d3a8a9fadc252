package zoomapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// SnapshotStore holds the latest roster pushed by the in-meeting Zoom
// App client. The client owns the SDK connection, so the server side
// only ever sees whole snapshots.
type SnapshotStore struct {
	mu       sync.RWMutex
	records  []entities.RawRecord
	pushedAt time.Time
	pushed   bool
	maxAge   time.Duration
	clock    clock.Clock
}

var _ roster.SnapshotProvider = (*SnapshotStore)(nil)

// NewSnapshotStore creates an empty store. A snapshot older than maxAge
// is reported as a fetch failure; zero disables the check.
func NewSnapshotStore(maxAge time.Duration, clk clock.Clock) *SnapshotStore {
	if clk == nil {
		clk = clock.New()
	}
	return &SnapshotStore{maxAge: maxAge, clock: clk}
}

// Push replaces the latest snapshot
func (s *SnapshotStore) Push(records []entities.RawRecord) {
	cp := make([]entities.RawRecord, len(records))
	copy(cp, records)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cp
	s.pushedAt = s.clock.Now()
	s.pushed = true
}

// FetchParticipants returns the latest snapshot
func (s *SnapshotStore) FetchParticipants(ctx context.Context) ([]entities.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.pushed {
		return nil, usecaseErrors.ErrNoSnapshot
	}
	if s.maxAge > 0 {
		if s.clock.Now().Sub(s.pushedAt) > s.maxAge {
			return nil, fmt.Errorf("%w: no snapshot pushed in the last %s", usecaseErrors.ErrSnapshotFailed, s.maxAge)
		}
	}

	out := make([]entities.RawRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// LastPush returns when the latest snapshot arrived
func (s *SnapshotStore) LastPush() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pushedAt, s.pushed
}
