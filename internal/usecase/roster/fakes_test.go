package roster

import (
	"context"
	"errors"
	"sync"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/pkg/passcontext"
)

type fakeProvider struct {
	mu      sync.Mutex
	records []entities.RawRecord
	err     error
	calls   int
	block   chan struct{}
}

func (f *fakeProvider) set(records ...entities.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = nil
}

func (f *fakeProvider) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeProvider) FetchParticipants(ctx context.Context) ([]entities.RawRecord, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entities.RawRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []entities.RosterEvent
	err    error
}

func (f *fakeSink) Notify(_ context.Context, event entities.RosterEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeSink) received() []entities.RosterEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.RosterEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeInitializer struct {
	err error
}

func (f fakeInitializer) Init(context.Context) error { return f.err }

type fakeSubscription struct {
	ch   chan struct{}
	once sync.Once
}

func (s *fakeSubscription) Events() <-chan struct{} { return s.ch }
func (s *fakeSubscription) Unsubscribe()            { s.once.Do(func() { close(s.ch) }) }

type fakeEvents struct {
	sub *fakeSubscription
	err error
}

func (f *fakeEvents) Subscribe(context.Context) (Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sub = &fakeSubscription{ch: make(chan struct{}, 1)}
	return f.sub, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	reports  []*entities.SessionReport
	fails    int
	err      error
	attempts int
}

func (f *fakeUploader) UploadReport(_ context.Context, report *entities.SessionReport) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.fails > 0 {
		f.fails--
		if f.err != nil {
			return "", f.err
		}
		return "", errors.New("storage unavailable")
	}
	f.reports = append(f.reports, report)
	return "reports/" + report.MeetingID + ".json", nil
}

func rec(id string, role int) entities.RawRecord {
	return entities.RawRecord{ID: id, DisplayName: "user-" + id, RoleCode: role}
}

func speaking(id string, on bool) entities.RawRecord {
	return entities.RawRecord{ID: id, DisplayName: "user-" + id, IsSpeaking: on}
}

func ids(participants []entities.Participant) []string {
	out := make([]string, 0, len(participants))
	for _, p := range participants {
		out = append(out, p.ID)
	}
	return out
}

// gatedProvider holds every speaking sample until release is signalled.
// Reconcile passes go through unblocked.
type gatedProvider struct {
	*fakeProvider
	release chan struct{}

	mu      sync.Mutex
	samples int
	waiting int
}

func newGatedProvider(records ...entities.RawRecord) *gatedProvider {
	inner := &fakeProvider{}
	inner.set(records...)
	return &gatedProvider{fakeProvider: inner, release: make(chan struct{})}
}

func (g *gatedProvider) FetchParticipants(ctx context.Context) ([]entities.RawRecord, error) {
	if trigger, _ := passcontext.GetTrigger(ctx); trigger == speakingTrigger {
		g.mu.Lock()
		g.samples++
		g.waiting++
		g.mu.Unlock()

		defer func() {
			g.mu.Lock()
			g.waiting--
			g.mu.Unlock()
		}()

		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.fakeProvider.FetchParticipants(ctx)
}

func (g *gatedProvider) counts() (samples, waiting int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.samples, g.waiting
}
