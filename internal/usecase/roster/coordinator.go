package roster

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// TriggerSource identifies what requested a reconciliation
type TriggerSource string

const (
	TriggerPoll    TriggerSource = "poll"
	TriggerPush    TriggerSource = "push"
	TriggerStartup TriggerSource = "startup"
	TriggerManual  TriggerSource = "manual"
)

// CoordinatorState is the state of the trigger coordinator
type CoordinatorState int

const (
	StateIdle CoordinatorState = iota
	StateRunning
	StateRunningWithPending
	StateClosed
)

func (s CoordinatorState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateRunningWithPending:
		return "running_with_pending"
	case StateClosed:
		return "closed"
	default:
		return "idle"
	}
}

// RunFunc performs one reconciliation pass
type RunFunc func(ctx context.Context, source TriggerSource)

// Coordinator serializes triggers from independent sources so at most
// one pass runs at a time. Triggers that arrive during a run coalesce
// into a single pending run.
type Coordinator struct {
	run    RunFunc
	logger *zap.Logger

	mu      sync.Mutex
	state   CoordinatorState
	pending TriggerSource
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator creates an idle coordinator that executes run
func NewCoordinator(run RunFunc, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		run:    run,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Trigger requests a run. It returns false once the coordinator is closed.
func (c *Coordinator) Trigger(source TriggerSource) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	switch c.state {
	case StateIdle:
		c.state = StateRunning
		c.wg.Add(1)
		go c.loop(source)
	case StateRunning:
		c.state = StateRunningWithPending
		c.pending = source
	case StateRunningWithPending:
		// the pending run fetches the latest snapshot anyway
		c.logger.Debug("roster.trigger.coalesced", zap.String("source", string(source)))
	}
	return true
}

// State returns the current state
func (c *Coordinator) State() CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close rejects further triggers, waits for an in-flight run to finish
// and discards any pending run.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()
	c.cancel()
}

func (c *Coordinator) loop(source TriggerSource) {
	defer c.wg.Done()

	for {
		c.runOnce(source)

		c.mu.Lock()
		if c.state == StateRunningWithPending && !c.closed {
			c.state = StateRunning
			source = c.pending
			c.mu.Unlock()
			continue
		}
		if !c.closed {
			c.state = StateIdle
		}
		c.mu.Unlock()
		return
	}
}

func (c *Coordinator) runOnce(source TriggerSource) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("roster.reconcile.panic",
				zap.String("source", string(source)),
				zap.Any("panic", r),
			)
		}
	}()
	c.run(c.ctx, source)
}
