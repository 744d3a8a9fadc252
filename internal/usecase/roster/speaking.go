package roster

import (
	"context"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/pkg/passcontext"
)

// DefaultSpeakingTick is the sampling period used when none is configured
const DefaultSpeakingTick = time.Second

// SpeakingTracker samples per-participant speaking flags once per tick,
// accumulates speaking time and recomputes participation percentages.
type SpeakingTracker struct {
	store     *Store
	provider  SnapshotProvider
	changeLog *ChangeLog
	period    time.Duration
	clock     clock.Clock
	logger    *zap.Logger
}

// NewSpeakingTracker creates a tracker ticking every period
func NewSpeakingTracker(store *Store, provider SnapshotProvider, changeLog *ChangeLog, period time.Duration, clk clock.Clock, logger *zap.Logger) *SpeakingTracker {
	if period <= 0 {
		period = DefaultSpeakingTick
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpeakingTracker{
		store:     store,
		provider:  provider,
		changeLog: changeLog,
		period:    period,
		clock:     clk,
		logger:    logger,
	}
}

// Period returns the tick period
func (t *SpeakingTracker) Period() time.Duration {
	return t.period
}

// Sample fetches a fresh snapshot and applies it as one tick. On fetch
// failure the tick is skipped and the store is left untouched.
func (t *SpeakingTracker) Sample(ctx context.Context) error {
	records, err := t.provider.FetchParticipants(ctx)
	if err != nil {
		t.logger.Warn("roster.speaking.fetch_failed", append(passcontext.Fields(ctx), zap.Error(err))...)
		t.changeLog.Appendf(entities.ChangeKindFetchFailed, "Error fetching speaking sample: %v", err)
		return err
	}
	t.Apply(records, t.clock.Now())
	return nil
}

// Apply processes one tick at time now. Edges are handled first: a
// participant that starts speaking gets SpeakingStartedAt, one that
// stops has its open interval closed. Then every participant that was
// already speaking and still is accrues exactly one period.
func (t *SpeakingTracker) Apply(records []entities.RawRecord, now time.Time) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var continuing []*entities.Participant
	for _, rec := range dedupeRecords(records) {
		p, ok := t.store.lookup(rec.ID)
		if !ok || !p.IsActive() {
			continue
		}
		if rec.IsSpeaking {
			if !p.StartSpeaking(now) {
				continuing = append(continuing, p)
			}
			continue
		}
		p.StopSpeaking(now)
	}

	for _, p := range continuing {
		p.Accrue(t.period, now)
	}

	var all []*entities.Participant
	t.store.each(func(p *entities.Participant) {
		all = append(all, p)
	})
	applyParticipation(all)
}

func applyParticipation(participants []*entities.Participant) {
	accumulated := make([]int64, len(participants))
	for i, p := range participants {
		accumulated[i] = p.SpeakingAccumulatedMs
	}
	for i, pct := range ParticipationPercentages(accumulated) {
		participants[i].ParticipationPercent = pct
	}
}

// ParticipationPercentages returns each value's share of the total as a
// percentage with two decimals. Shares are apportioned in hundredths of
// a percent by largest remainder, so a non-zero total always sums to
// exactly 100.00. A zero total yields all zeros.
func ParticipationPercentages(accumulated []int64) []float64 {
	out := make([]float64, len(accumulated))

	var total int64
	for _, ms := range accumulated {
		if ms > 0 {
			total += ms
		}
	}
	if total == 0 {
		return out
	}

	const scale = 10000 // 100% in hundredths

	type share struct {
		index     int
		units     int64
		remainder int64
	}
	shares := make([]share, len(accumulated))
	var assigned int64
	for i, ms := range accumulated {
		if ms < 0 {
			ms = 0
		}
		scaled := ms * scale
		shares[i] = share{index: i, units: scaled / total, remainder: scaled % total}
		assigned += shares[i].units
	}

	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shares[order[a]].remainder > shares[order[b]].remainder
	})
	leftover := int(scale - assigned)
	for i := 0; i < leftover; i++ {
		shares[order[i]].units++
	}

	for _, s := range shares {
		out[s.index] = float64(s.units) / 100
	}
	return out
}
