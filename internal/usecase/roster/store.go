package roster

import (
	"sync"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// Store is the authoritative in-memory table of participants for one
// meeting session. Mutations happen only inside a reconcile or speaking
// pass, both of which hold mu for the whole pass.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*entities.Participant
	order  []string
	hostID string
}

// NewStore creates an empty roster store
func NewStore() *Store {
	return &Store{
		byID: make(map[string]*entities.Participant),
	}
}

// Participants returns copies of all entries in first-observed order
func (s *Store) Participants() []entities.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.Participant, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Get returns a copy of one entry
func (s *Store) Get(id string) (entities.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return entities.Participant{}, false
	}
	return p.Clone(), true
}

// HostID returns the tracked host id, empty if none
func (s *Store) HostID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostID
}

// Len returns the number of entries ever observed
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// The helpers below require mu to be held for writing.

func (s *Store) lookup(id string) (*entities.Participant, bool) {
	p, ok := s.byID[id]
	return p, ok
}

func (s *Store) insert(p *entities.Participant) {
	if _, exists := s.byID[p.ID]; exists {
		return
	}
	s.byID[p.ID] = p
	s.order = append(s.order, p.ID)
}

func (s *Store) each(fn func(p *entities.Participant)) {
	for _, id := range s.order {
		fn(s.byID[id])
	}
}

// demoteOtherHosts keeps the host role unique to keepID.
func (s *Store) demoteOtherHosts(keepID string) {
	for _, p := range s.byID {
		if p.ID != keepID && p.Role == entities.ParticipantRoleHost {
			p.Role = entities.ParticipantRoleParticipant
		}
	}
}
