package notify

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/domain/repositories"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// RepositorySink persists roster events as join/leave history
type RepositorySink struct {
	repo repositories.ParticipantEventRepository
}

// NewRepositorySink creates a sink writing to repo
func NewRepositorySink(repo repositories.ParticipantEventRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

// Notify stores the event
func (s *RepositorySink) Notify(ctx context.Context, event entities.RosterEvent) error {
	row, err := entities.NewParticipantEvent(event)
	if err != nil {
		return fmt.Errorf("failed to build participant event: %w", err)
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to store participant event: %w", err)
	}
	return nil
}

// LogSink writes roster events to the operator log
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink logging through logger
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Notify logs the event
func (s *LogSink) Notify(_ context.Context, event entities.RosterEvent) error {
	s.logger.Info("roster.event",
		zap.String("kind", string(event.Kind)),
		zap.String("meeting_id", event.MeetingID),
		zap.String("participant_id", event.Participant.ID),
		zap.String("display_name", event.Participant.DisplayName),
		zap.String("role", string(event.Participant.Role)),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

// FanOut delivers every event to all sinks. One sink failing does not
// stop delivery to the others; all errors are combined.
type FanOut []roster.RosterSink

var (
	_ roster.RosterSink = (*RepositorySink)(nil)
	_ roster.RosterSink = (*LogSink)(nil)
	_ roster.RosterSink = FanOut(nil)
)

// Notify delivers the event to each sink in order
func (f FanOut) Notify(ctx context.Context, event entities.RosterEvent) error {
	var err error
	for _, sink := range f {
		err = multierr.Append(err, sink.Notify(ctx, event))
	}
	return err
}
