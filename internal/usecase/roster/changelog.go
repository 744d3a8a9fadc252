package roster

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// DefaultChangeLogSize is used when a non-positive capacity is given
const DefaultChangeLogSize = 200

// ChangeLog is an append-only ring of the most recent transition
// records. Once full, the oldest entry is overwritten.
//
// A failure identical to one in the run of failures at the head of the
// log is folded into that entry: its Repeats count grows and it moves
// to the head. A source that keeps failing therefore cannot evict the
// join and leave history.
type ChangeLog struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries []entities.ChangeEntry
	next    int
	full    bool
}

// NewChangeLog creates a ChangeLog holding at most capacity entries
func NewChangeLog(capacity int, clk clock.Clock) *ChangeLog {
	if capacity <= 0 {
		capacity = DefaultChangeLogSize
	}
	if clk == nil {
		clk = clock.New()
	}
	return &ChangeLog{
		clock:   clk,
		entries: make([]entities.ChangeEntry, capacity),
	}
}

// Append records a new entry stamped with the current time
func (l *ChangeLog) Append(kind entities.ChangeKind, message string) entities.ChangeEntry {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if kind.IsFailure() {
		if entry, ok := l.foldLocked(kind, message, now); ok {
			return entry
		}
	}

	entry := entities.ChangeEntry{
		ID:      uuid.New(),
		At:      now,
		Kind:    kind,
		Message: message,
	}
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return entry
}

// Appendf is Append with fmt.Sprintf formatting
func (l *ChangeLog) Appendf(kind entities.ChangeKind, format string, args ...interface{}) entities.ChangeEntry {
	return l.Append(kind, fmt.Sprintf(format, args...))
}

// Entries returns the retained entries, newest first
func (l *ChangeLog) Entries() []entities.ChangeEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := l.lenLocked()
	out := make([]entities.ChangeEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of retained entries
func (l *ChangeLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lenLocked()
}

// Cap returns the maximum number of retained entries
func (l *ChangeLog) Cap() int {
	return len(l.entries)
}

// foldLocked merges a repeated failure into the matching entry of the
// leading failure run and moves it to the head.
func (l *ChangeLog) foldLocked(kind entities.ChangeKind, message string, now time.Time) (entities.ChangeEntry, bool) {
	size := len(l.entries)
	n := l.lenLocked()
	at := func(i int) int { return (l.next - i + size) % size }

	for i := 1; i <= n; i++ {
		e := l.entries[at(i)]
		if !e.Kind.IsFailure() {
			return entities.ChangeEntry{}, false
		}
		if e.Kind != kind || e.Message != message {
			continue
		}

		e.Repeats++
		e.At = now
		for j := i; j > 1; j-- {
			l.entries[at(j)] = l.entries[at(j-1)]
		}
		l.entries[at(1)] = e
		return e, true
	}
	return entities.ChangeEntry{}, false
}

func (l *ChangeLog) lenLocked() int {
	if l.full {
		return len(l.entries)
	}
	return l.next
}
