package roster

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

const defaultSinkQueueSize = 64

// dispatcher forwards roster events to a sink on its own goroutine so a
// slow or failing sink never blocks reconciliation. Events that do not
// fit in the queue are dropped and logged.
type dispatcher struct {
	sink      RosterSink
	changeLog *ChangeLog
	logger    *zap.Logger
	timeout   time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan entities.RosterEvent
	done   chan struct{}
}

func newDispatcher(sink RosterSink, changeLog *ChangeLog, logger *zap.Logger, queueSize int, timeout time.Duration) *dispatcher {
	if queueSize <= 0 {
		queueSize = defaultSinkQueueSize
	}
	d := &dispatcher{
		sink:      sink,
		changeLog: changeLog,
		logger:    logger,
		timeout:   timeout,
		queue:     make(chan entities.RosterEvent, queueSize),
		done:      make(chan struct{}),
	}
	go d.loop()
	return d
}

// dispatch enqueues an event without blocking
func (d *dispatcher) dispatch(event entities.RosterEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("roster.sink.dropped",
			zap.String("kind", string(event.Kind)),
			zap.String("participant_id", event.Participant.ID),
		)
		d.changeLog.Appendf(entities.ChangeKindSinkFailed, "Sink queue full, dropped %s of %s", event.Kind, event.Participant.DisplayName)
	}
}

// close stops accepting events and waits until queued ones are delivered
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *dispatcher) deliver(event entities.RosterEvent) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sink.Notify(ctx, event); err != nil {
		d.logger.Error("roster.sink.notify_failed",
			zap.String("kind", string(event.Kind)),
			zap.String("participant_id", event.Participant.ID),
			zap.Error(err),
		)
		d.changeLog.Appendf(entities.ChangeKindSinkFailed, "Sink delivery failed for %s of %s: %v", event.Kind, event.Participant.DisplayName, err)
	}
}
