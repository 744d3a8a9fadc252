package roster

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
)

func hasEntry(entries []entities.ChangeEntry, kind entities.ChangeKind, substr string) bool {
	for _, e := range entries {
		if e.Kind == kind && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestSessionLifecycle(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(rec("A", entities.RoleCodeHost), rec("B", 0))

	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{Provider: provider})
	require.Equal(t, entities.StatusNotConnected, s.Status())

	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, entities.StatusConnected, s.Status())
	waitFor(t, func() bool { return len(s.Participants()) == 2 })
	require.Equal(t, "A", s.HostID())

	require.ErrorIs(t, s.Start(context.Background()), usecaseErrors.ErrSessionAlreadyStarted)

	require.NoError(t, s.Stop(context.Background()))
	require.Equal(t, entities.StatusNotConnected, s.Status())
	require.False(t, s.Trigger(TriggerManual))
	require.ErrorIs(t, s.Stop(context.Background()), usecaseErrors.ErrSessionNotRunning)

	entries := s.Entries()
	require.True(t, hasEntry(entries, entities.ChangeKindStatus, "Initializing meeting connection..."))
	require.True(t, hasEntry(entries, entities.ChangeKindStatus, "Meeting connection CONNECTED"))
	require.True(t, hasEntry(entries, entities.ChangeKindJoin, "Participant joined: user-A (Host)"))
	require.Equal(t, "Session stopped", entries[0].Message)

	// the roster stays readable after teardown
	require.Len(t, s.Participants(), 2)
}

func TestSessionInitializationFailureIsTerminal(t *testing.T) {
	provider := &fakeProvider{}
	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{
		Provider:    provider,
		Initializer: fakeInitializer{err: errors.New("capability denied")},
	})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, usecaseErrors.ErrSessionFailed)
	require.Contains(t, err.Error(), "capability denied")
	require.Equal(t, entities.StatusFailed, s.Status())
	require.True(t, hasEntry(s.Entries(), entities.ChangeKindStatus, "Initialization FAILED"))

	require.ErrorIs(t, s.Start(context.Background()), usecaseErrors.ErrSessionFailed)
	require.False(t, s.Trigger(TriggerManual))
	require.Zero(t, provider.callCount())
}

func TestSessionSubscriptionFailureIsTerminal(t *testing.T) {
	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{
		Provider: &fakeProvider{},
		Events:   &fakeEvents{err: errors.New("no event api")},
	})

	require.ErrorIs(t, s.Start(context.Background()), usecaseErrors.ErrSessionFailed)
	require.Equal(t, entities.StatusFailed, s.Status())
}

func TestSessionPushEventTriggersReconcile(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(rec("A", entities.RoleCodeHost))
	events := &fakeEvents{}

	s := NewSession(Options{MeetingID: "m-1", PollInterval: time.Hour}, Dependencies{
		Provider: provider,
		Events:   events,
	})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	waitFor(t, func() bool { return len(s.Participants()) == 1 })

	provider.set(rec("A", entities.RoleCodeHost), rec("C", 0))
	events.sub.ch <- struct{}{}

	waitFor(t, func() bool { return len(s.Participants()) == 2 })
}

func TestSessionPollPicksUpChanges(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(rec("A", entities.RoleCodeHost), rec("B", 0))

	s := NewSession(Options{
		MeetingID:    "m-1",
		PollInterval: 20 * time.Millisecond,
		SpeakingTick: 10 * time.Millisecond,
	}, Dependencies{Provider: provider})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	waitFor(t, func() bool { return len(s.Participants()) == 2 })

	provider.set(rec("B", entities.RoleCodeHost))
	waitFor(t, func() bool { return s.HostID() == "B" })

	a := s.Participants()[0]
	require.Equal(t, "A", a.ID)
	require.NotNil(t, a.LeaveTime)
}

func TestSessionFetchFailureKeepsRunning(t *testing.T) {
	provider := &fakeProvider{}
	provider.fail(errors.New("sdk unavailable"))

	s := NewSession(Options{MeetingID: "m-1", PollInterval: 20 * time.Millisecond}, Dependencies{Provider: provider})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())

	waitFor(t, func() bool {
		return hasEntry(s.Entries(), entities.ChangeKindFetchFailed, "Error fetching participants: sdk unavailable")
	})
	require.Empty(t, s.Participants())
	require.Equal(t, entities.StatusConnected, s.Status())

	provider.set(rec("A", 0))
	waitFor(t, func() bool { return len(s.Participants()) == 1 })
}

func TestSessionSinkFailureDoesNotBlockReconcile(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(rec("A", entities.RoleCodeHost), rec("B", 0))
	sink := &fakeSink{err: errors.New("webhook down")}

	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{Provider: provider, Sink: sink})
	require.NoError(t, s.Start(context.Background()))

	waitFor(t, func() bool { return len(sink.received()) == 2 })
	waitFor(t, func() bool { return hasEntry(s.Entries(), entities.ChangeKindSinkFailed, "webhook down") })
	require.Len(t, s.Participants(), 2)

	require.NoError(t, s.Stop(context.Background()))
	for _, e := range sink.received() {
		require.Equal(t, "m-1", e.MeetingID)
		require.Equal(t, entities.RosterEventJoin, e.Kind)
	}
}

func TestSessionUploadsReportOnStop(t *testing.T) {
	provider := &fakeProvider{}
	provider.set(rec("A", entities.RoleCodeHost))
	uploader := &fakeUploader{fails: 1}

	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{Provider: provider, Reports: uploader})
	require.NoError(t, s.Start(context.Background()))
	waitFor(t, func() bool { return len(s.Participants()) == 1 })

	require.NoError(t, s.Stop(context.Background()))

	require.Len(t, uploader.reports, 1)
	report := uploader.reports[0]
	require.Equal(t, "m-1", report.MeetingID)
	require.Equal(t, "A", report.HostID)
	require.Len(t, report.Participants, 1)
	require.False(t, report.EndedAt.Before(report.StartedAt))
	require.True(t, hasEntry(s.Entries(), entities.ChangeKindInfo, "Session report uploaded: reports/m-1.json"))
}

func TestSessionReportUploadStopsOnPermanentError(t *testing.T) {
	uploader := &fakeUploader{fails: 5, err: errors.New("Access Denied.")}

	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{Provider: &fakeProvider{}, Reports: uploader})
	require.NoError(t, s.Start(context.Background()))

	err := s.Stop(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Access Denied.")
	require.Equal(t, 1, uploader.attempts)
	require.True(t, hasEntry(s.Entries(), entities.ChangeKindInfo, "Session report upload failed"))
}

func TestSessionReportUploadRetriesTransientError(t *testing.T) {
	uploader := &fakeUploader{fails: 1, err: errors.New("invalid response: connection reset by peer")}

	s := NewSession(Options{MeetingID: "m-1"}, Dependencies{Provider: &fakeProvider{}, Reports: uploader})
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Stop(context.Background()))
	require.Equal(t, 2, uploader.attempts)
	require.Len(t, uploader.reports, 1)
}

func TestSessionSkipsSpeakingTickDeliveredLate(t *testing.T) {
	clk := clock.NewMock()
	period := 10 * time.Second
	provider := newGatedProvider(entities.RawRecord{ID: "A", DisplayName: "Ann", RoleCode: entities.RoleCodeHost, IsSpeaking: true})

	s := NewSession(Options{
		MeetingID:    "m-1",
		PollInterval: time.Hour,
		SpeakingTick: period,
		FetchTimeout: time.Hour,
	}, Dependencies{Provider: provider, Clock: clk})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(context.Background())
	waitFor(t, func() bool { return len(s.Participants()) == 1 })

	speaker := func() entities.Participant {
		p, _ := s.Participant("A")
		return p
	}

	// first tick opens the speaking interval
	clk.Add(period)
	waitFor(t, func() bool { _, waiting := provider.counts(); return waiting == 1 })
	provider.release <- struct{}{}
	waitFor(t, func() bool { p := speaker(); return p.IsSpeaking() })
	require.Zero(t, speaker().SpeakingAccumulatedMs)

	// the second sample hangs while two more periods pass; one tick is
	// buffered by the ticker, the other is lost
	clk.Add(period)
	waitFor(t, func() bool { samples, waiting := provider.counts(); return samples == 2 && waiting == 1 })
	clk.Add(period)
	clk.Add(period)

	provider.release <- struct{}{}
	waitFor(t, func() bool { return speaker().SpeakingAccumulatedMs == period.Milliseconds() })

	// the buffered tick is a period late by now and is dropped
	require.Never(t, func() bool {
		samples, _ := provider.counts()
		return samples > 2
	}, 100*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, period.Milliseconds(), speaker().SpeakingAccumulatedMs)
}

func TestSessionSerializesPasses(t *testing.T) {
	provider := &fakeProvider{block: make(chan struct{})}
	provider.set(rec("A", 0))

	s := NewSession(Options{MeetingID: "m-1", PollInterval: time.Hour, SpeakingTick: time.Hour}, Dependencies{Provider: provider})
	require.NoError(t, s.Start(context.Background()))

	waitFor(t, func() bool { return provider.callCount() == 1 })
	for i := 0; i < 5; i++ {
		require.True(t, s.Trigger(TriggerManual))
	}
	require.Equal(t, 1, provider.callCount())

	close(provider.block)
	waitFor(t, func() bool { return provider.callCount() == 2 })
	require.NoError(t, s.Stop(context.Background()))
	require.Equal(t, 2, provider.callCount(), "burst of triggers coalesces into one follow-up pass")
}
