package roster

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// Reconciler diffs full snapshots against the Store and applies joins,
// leaves, role refreshes and host changes in a single locked pass.
type Reconciler struct {
	store     *Store
	changeLog *ChangeLog
	hosts     HostTracker
	clock     clock.Clock
	logger    *zap.Logger
	meetingID string
	onEvent   func(entities.RosterEvent)
}

// NewReconciler creates a reconciler over store
func NewReconciler(store *Store, changeLog *ChangeLog, hosts HostTracker, clk clock.Clock, logger *zap.Logger) *Reconciler {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:     store,
		changeLog: changeLog,
		hosts:     hosts,
		clock:     clk,
		logger:    logger,
	}
}

// OnEvent registers the function join and leave events are forwarded to.
// It is called after the store lock has been released.
func (r *Reconciler) OnEvent(meetingID string, fn func(entities.RosterEvent)) {
	r.meetingID = meetingID
	r.onEvent = fn
}

// Reconcile applies snapshot as ground truth for presence. Calling it
// twice with the same snapshot yields an empty result the second time.
func (r *Reconciler) Reconcile(snapshot []entities.RawRecord) entities.ReconcileResult {
	now := r.clock.Now()
	snapshot = dedupeRecords(snapshot)

	var (
		result      entities.ReconcileResult
		hostCleared bool
		names       = make(map[string]string, len(snapshot))
	)

	r.store.mu.Lock()

	previousHostID := r.store.hostID
	transfer, trackedHostID := r.hosts.Detect(previousHostID, snapshot)
	snapshotHostID, hasHost := FindHost(snapshot)

	present := make(map[string]struct{}, len(snapshot))
	for _, rec := range snapshot {
		present[rec.ID] = struct{}{}

		role := rec.Role()
		if role == entities.ParticipantRoleHost && rec.ID != snapshotHostID {
			role = entities.ParticipantRoleCoHost
		}

		p, ok := r.store.lookup(rec.ID)
		if !ok {
			p = entities.NewParticipant(rec, now)
			p.Role = role
			r.store.insert(p)
			result.Joined = append(result.Joined, p.Clone())
		} else {
			p.Role = role
			if rec.DisplayName != "" {
				p.DisplayName = rec.DisplayName
			}
		}
		names[p.ID] = p.DisplayName
	}

	r.store.each(func(p *entities.Participant) {
		if _, ok := present[p.ID]; ok {
			return
		}
		if p.Leave(now) {
			result.Left = append(result.Left, p.Clone())
		}
		names[p.ID] = p.DisplayName
	})

	if hasHost {
		r.store.demoteOtherHosts(snapshotHostID)
	}
	hostCleared = previousHostID != "" && trackedHostID == ""
	r.store.hostID = trackedHostID
	result.HostTransfer = transfer

	r.store.mu.Unlock()

	r.record(result, names, hostCleared, previousHostID, now)
	return result
}

func (r *Reconciler) record(result entities.ReconcileResult, names map[string]string, hostCleared bool, previousHostID string, now time.Time) {
	for _, p := range result.Joined {
		r.changeLog.Appendf(entities.ChangeKindJoin, "Participant joined: %s (%s)", label(p.DisplayName, p.ID), p.Role.DisplayName())
		r.logger.Info("roster.participant.joined",
			zap.String("participant_id", p.ID),
			zap.String("role", string(p.Role)),
		)
		r.emit(entities.RosterEventJoin, p, now)
	}

	for _, p := range result.Left {
		r.changeLog.Appendf(entities.ChangeKindLeave, "Participant left: %s", label(p.DisplayName, p.ID))
		r.logger.Info("roster.participant.left", zap.String("participant_id", p.ID))
		r.emit(entities.RosterEventLeave, p, now)
	}

	if t := result.HostTransfer; t != nil {
		if t.FromID == "" {
			r.changeLog.Appendf(entities.ChangeKindHostTransfer, "Host assigned: %s", label(names[t.ToID], t.ToID))
		} else {
			r.changeLog.Appendf(entities.ChangeKindHostTransfer, "Host changed to: %s", label(names[t.ToID], t.ToID))
		}
		r.logger.Info("roster.host.transferred",
			zap.String("from_id", t.FromID),
			zap.String("to_id", t.ToID),
		)
	}

	if hostCleared {
		r.changeLog.Appendf(entities.ChangeKindHostCleared, "Host cleared: no host reported after %s", previousHostID)
		r.logger.Info("roster.host.cleared", zap.String("previous_host_id", previousHostID))
	}
}

func (r *Reconciler) emit(kind entities.RosterEventKind, p entities.Participant, at time.Time) {
	if r.onEvent == nil {
		return
	}
	r.onEvent(entities.RosterEvent{
		Kind:        kind,
		MeetingID:   r.meetingID,
		Participant: p,
		OccurredAt:  at,
	})
}

// dedupeRecords drops records without an id and keeps the first
// occurrence of each id.
func dedupeRecords(records []entities.RawRecord) []entities.RawRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]entities.RawRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func label(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
