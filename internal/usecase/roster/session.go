package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
	"github.com/johnquangdev/meeting-roster/pkg/passcontext"
)

// speakingTrigger tags the fetch context of speaking samples
const speakingTrigger = "speaking"

// Options configures a roster session
type Options struct {
	MeetingID     string
	PollInterval  time.Duration
	SpeakingTick  time.Duration
	FetchTimeout  time.Duration
	ChangeLogSize int
	SinkQueueSize int
	HostPolicy    HostPolicy
}

// Dependencies are the external collaborators of a session. Only
// Provider is required; the provider must be safe for concurrent use
// since reconcile and speaking passes fetch independently.
type Dependencies struct {
	Provider    SnapshotProvider
	Events      ChangeEventSource
	Sink        RosterSink
	Initializer Initializer
	Reports     ReportUploader
	Clock       clock.Clock
	Logger      *zap.Logger
}

// Session owns the roster of one meeting from start to teardown
type Session struct {
	opts   Options
	deps   Dependencies
	clock  clock.Clock
	logger *zap.Logger

	store       *Store
	changeLog   *ChangeLog
	reconciler  *Reconciler
	tracker     *SpeakingTracker
	coordinator *Coordinator
	dispatcher  *dispatcher

	mu        sync.RWMutex
	status    entities.ConnectionStatus
	started   bool
	running   bool
	startedAt time.Time
	stoppedAt time.Time
	sub       Subscription
	cancel    context.CancelFunc
	wg        conc.WaitGroup
}

// NewSession creates a session in the NotConnected state
func NewSession(opts Options, deps Dependencies) *Session {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.SpeakingTick <= 0 {
		opts.SpeakingTick = DefaultSpeakingTick
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 3 * time.Second
	}

	logger := deps.Logger.With(zap.String("meeting_id", opts.MeetingID))
	store := NewStore()
	changeLog := NewChangeLog(opts.ChangeLogSize, deps.Clock)

	s := &Session{
		opts:       opts,
		deps:       deps,
		clock:      deps.Clock,
		logger:     logger,
		store:      store,
		changeLog:  changeLog,
		reconciler: NewReconciler(store, changeLog, HostTracker{Policy: opts.HostPolicy}, deps.Clock, logger),
		tracker:    NewSpeakingTracker(store, deps.Provider, changeLog, opts.SpeakingTick, deps.Clock, logger),
		status:     entities.StatusNotConnected,
	}
	s.coordinator = NewCoordinator(s.reconcilePass, logger)
	return s
}

// Start negotiates capabilities, subscribes to change events and starts
// the poll and speaking loops. Initialization failure is terminal.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status == entities.StatusFailed {
		s.mu.Unlock()
		return usecaseErrors.ErrSessionFailed
	}
	if s.started {
		s.mu.Unlock()
		return usecaseErrors.ErrSessionAlreadyStarted
	}
	s.started = true
	s.setStatusLocked(entities.StatusConnecting, "Initializing meeting connection...")
	s.mu.Unlock()

	if s.deps.Initializer != nil {
		if err := s.deps.Initializer.Init(ctx); err != nil {
			return s.fail("capability negotiation", err)
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	var sub Subscription
	if s.deps.Events != nil {
		var err error
		if sub, err = s.deps.Events.Subscribe(loopCtx); err != nil {
			cancel()
			return s.fail("change event subscription", err)
		}
	}

	if s.deps.Sink != nil {
		s.dispatcher = newDispatcher(s.deps.Sink, s.changeLog, s.logger, s.opts.SinkQueueSize, s.opts.FetchTimeout)
		s.reconciler.OnEvent(s.opts.MeetingID, s.dispatcher.dispatch)
	}

	s.mu.Lock()
	s.sub = sub
	s.cancel = cancel
	s.running = true
	s.startedAt = s.clock.Now()
	s.setStatusLocked(entities.StatusConnected, "Meeting connection CONNECTED")
	s.mu.Unlock()

	// tickers are created before Start returns so the first tick is
	// measured from the start time
	pollTicker := s.clock.Ticker(s.opts.PollInterval)
	speakingTicker := s.clock.Ticker(s.tracker.Period())

	s.wg.Go(func() { s.pollLoop(loopCtx, pollTicker) })
	s.wg.Go(func() { s.speakingLoop(loopCtx, speakingTicker) })
	if sub != nil {
		s.wg.Go(func() { s.eventLoop(loopCtx, sub) })
	}

	s.coordinator.Trigger(TriggerStartup)
	return nil
}

// Stop removes the event subscription, stops the timers and closes the
// coordinator. A pass already running completes before Stop returns.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return usecaseErrors.ErrSessionNotRunning
	}
	s.running = false
	sub, cancel := s.sub, s.cancel
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	cancel()
	s.wg.Wait()
	s.coordinator.Close()
	if s.dispatcher != nil {
		s.dispatcher.close()
	}

	s.mu.Lock()
	s.stoppedAt = s.clock.Now()
	s.setStatusLocked(entities.StatusNotConnected, "Session stopped")
	s.mu.Unlock()

	if s.deps.Reports != nil {
		if err := s.uploadReport(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Trigger requests a reconciliation pass
func (s *Session) Trigger(source TriggerSource) bool {
	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	if !running {
		return false
	}
	return s.coordinator.Trigger(source)
}

// Participants returns a copy of the roster
func (s *Session) Participants() []entities.Participant {
	return s.store.Participants()
}

// Participant returns a copy of one participant
func (s *Session) Participant(id string) (entities.Participant, bool) {
	return s.store.Get(id)
}

// Entries returns the ChangeLog, newest first
func (s *Session) Entries() []entities.ChangeEntry {
	return s.changeLog.Entries()
}

// Status returns the connection status
func (s *Session) Status() entities.ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// HostID returns the tracked host id
func (s *Session) HostID() string {
	return s.store.HostID()
}

// Report builds a report of the session so far
func (s *Session) Report() *entities.SessionReport {
	s.mu.RLock()
	startedAt, endedAt := s.startedAt, s.stoppedAt
	s.mu.RUnlock()
	if endedAt.IsZero() {
		endedAt = s.clock.Now()
	}

	participants := s.store.Participants()
	metrics := make([]entities.ParticipantMetrics, 0, len(participants))
	for _, p := range participants {
		metrics = append(metrics, entities.MetricsOf(p))
	}

	return &entities.SessionReport{
		ID:           uuid.New(),
		MeetingID:    s.opts.MeetingID,
		StartedAt:    startedAt,
		EndedAt:      endedAt,
		HostID:       s.store.HostID(),
		Participants: metrics,
		ChangeLog:    s.changeLog.Entries(),
	}
}

func (s *Session) reconcilePass(_ context.Context, source TriggerSource) {
	fetchCtx, cancel := passcontext.PassBegin(context.Background(), string(source), s.opts.FetchTimeout)
	defer cancel()

	records, err := s.deps.Provider.FetchParticipants(fetchCtx)
	if err != nil {
		s.logger.Warn("roster.reconcile.fetch_failed", append(passcontext.Fields(fetchCtx), zap.Error(err))...)
		s.changeLog.Appendf(entities.ChangeKindFetchFailed, "Error fetching participants: %v", err)
		return
	}

	result := s.reconciler.Reconcile(records)
	fields := append(passcontext.Fields(fetchCtx),
		zap.Int("snapshot_size", len(records)),
		zap.Int("joined", len(result.Joined)),
		zap.Int("left", len(result.Left)),
		zap.Int("roster_size", s.store.Len()),
		zap.Bool("host_transfer", result.HostTransfer != nil),
	)
	s.logger.Debug("roster.reconcile.done", fields...)
}

func (s *Session) pollLoop(ctx context.Context, ticker *clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.coordinator.Trigger(TriggerPoll)
		}
	}
}

func (s *Session) eventLoop(ctx context.Context, sub Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
			s.coordinator.Trigger(TriggerPush)
		}
	}
}

// speakingLoop samples once per tick. A tick delivered late because the
// previous sample overran is skipped instead of queued.
func (s *Session) speakingLoop(ctx context.Context, ticker *clock.Ticker) {
	period := s.tracker.Period()
	defer ticker.Stop()

	timeout := s.opts.FetchTimeout
	if timeout > period {
		timeout = period
	}

	for {
		select {
		case <-ctx.Done():
			return
		case tickAt := <-ticker.C:
			if lag := s.clock.Now().Sub(tickAt); lag >= period {
				s.logger.Debug("roster.speaking.tick_skipped", zap.Duration("lag", lag))
				continue
			}
			sampleCtx, cancel := passcontext.PassBegin(context.Background(), speakingTrigger, timeout)
			_ = s.tracker.Sample(sampleCtx)
			cancel()
		}
	}
}

func (s *Session) uploadReport(ctx context.Context) error {
	report := s.Report()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 20 * time.Second

	var location string
	upload := func() error {
		var err error
		location, err = s.deps.Reports.UploadReport(ctx, report)
		if err == nil || passcontext.IsRetryableError(err) {
			return err
		}
		if passcontext.IsNonRetryableError(err) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("roster.report.upload_retry", zap.Error(err))
		return err
	}

	if err := backoff.Retry(upload, backoff.WithContext(bo, ctx)); err != nil {
		s.logger.Error("roster.report.upload_failed", zap.Error(err))
		s.changeLog.Appendf(entities.ChangeKindInfo, "Session report upload failed: %v", err)
		return fmt.Errorf("failed to upload session report: %w", err)
	}

	s.logger.Info("roster.report.uploaded", zap.String("location", location))
	s.changeLog.Appendf(entities.ChangeKindInfo, "Session report uploaded: %s", location)
	return nil
}

func (s *Session) fail(stage string, err error) error {
	s.logger.Error("roster.session.init_failed", zap.String("stage", stage), zap.Error(err))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStatusLocked(entities.StatusFailed, fmt.Sprintf("Initialization FAILED (%s): %v", stage, err))
	return fmt.Errorf("%w: %s: %v", usecaseErrors.ErrSessionFailed, stage, err)
}

func (s *Session) setStatusLocked(status entities.ConnectionStatus, message string) {
	s.status = status
	s.changeLog.Append(entities.ChangeKindStatus, message)
	s.logger.Info("roster.session.status", zap.String("status", status.String()))
}
