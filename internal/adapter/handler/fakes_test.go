package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/domain/repositories"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

type fakeService struct {
	mu           sync.Mutex
	participants []entities.Participant
	entries      []entities.ChangeEntry
	hostID       string
	status       entities.ConnectionStatus
	accept       bool
	triggers     []roster.TriggerSource
}

func (f *fakeService) Start(context.Context) error { return nil }
func (f *fakeService) Stop(context.Context) error  { return nil }

func (f *fakeService) Trigger(source roster.TriggerSource) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, source)
	return f.accept
}

func (f *fakeService) Participants() []entities.Participant { return f.participants }

func (f *fakeService) Participant(id string) (entities.Participant, bool) {
	for _, p := range f.participants {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Participant{}, false
}

func (f *fakeService) Entries() []entities.ChangeEntry   { return f.entries }
func (f *fakeService) Status() entities.ConnectionStatus { return f.status }
func (f *fakeService) HostID() string                    { return f.hostID }

func (f *fakeService) Report() *entities.SessionReport {
	return &entities.SessionReport{ID: uuid.New(), MeetingID: "standup", HostID: f.hostID}
}

// fakeEventRepo filters like the gorm repository does
type fakeEventRepo struct {
	events  []*entities.ParticipantEvent
	filters repositories.ParticipantEventFilters
	err     error
}

func (f *fakeEventRepo) Create(context.Context, *entities.ParticipantEvent) error { return nil }

func (f *fakeEventRepo) ListByMeeting(_ context.Context, _ string, filters repositories.ParticipantEventFilters) ([]*entities.ParticipantEvent, error) {
	f.filters = filters
	if f.err != nil {
		return nil, f.err
	}
	matched := f.match(filters)
	if filters.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filters.Offset:]
	if filters.Limit > 0 && filters.Limit < len(matched) {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func (f *fakeEventRepo) CountByMeeting(_ context.Context, _ string, filters repositories.ParticipantEventFilters) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.match(filters))), nil
}

func (f *fakeEventRepo) match(filters repositories.ParticipantEventFilters) []*entities.ParticipantEvent {
	var out []*entities.ParticipantEvent
	for _, e := range f.events {
		if filters.ParticipantID != "" && e.ParticipantID != filters.ParticipantID {
			continue
		}
		if filters.Kind != nil && e.Kind != *filters.Kind {
			continue
		}
		if filters.Since != nil && e.OccurredAt.Before(*filters.Since) {
			continue
		}
		out = append(out, e)
	}
	return out
}

type fixedPush struct{ at time.Time }

func (p fixedPush) LastPush() (time.Time, bool) { return p.at, true }

type recordingNotifier struct {
	mu      sync.Mutex
	reasons []string
}

func (n *recordingNotifier) notify(_ context.Context, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNotifier) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.reasons...)
}

type recordingPusher struct {
	records []entities.RawRecord
}

func (p *recordingPusher) Push(records []entities.RawRecord) { p.records = records }
