package roster

import (
	"fmt"
	"strings"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

// HostPolicy decides what happens to the tracked host when a snapshot
// reports no host at all.
type HostPolicy int

const (
	// HostPolicyKeepLastKnown treats a host-less snapshot as a transient
	// anomaly and keeps the last known host id.
	HostPolicyKeepLastKnown HostPolicy = iota
	// HostPolicyClearOnAbsent forgets the tracked host id.
	HostPolicyClearOnAbsent
)

func (p HostPolicy) String() string {
	if p == HostPolicyClearOnAbsent {
		return "clear"
	}
	return "keep"
}

// ParseHostPolicy parses "keep" or "clear"
func ParseHostPolicy(s string) (HostPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep":
		return HostPolicyKeepLastKnown, nil
	case "clear":
		return HostPolicyClearOnAbsent, nil
	default:
		return HostPolicyKeepLastKnown, fmt.Errorf("unknown host policy %q", s)
	}
}

// FindHost returns the id of the first record holding the host role
func FindHost(snapshot []entities.RawRecord) (string, bool) {
	for _, r := range snapshot {
		if r.RoleCode == entities.RoleCodeHost {
			return r.ID, true
		}
	}
	return "", false
}

// DetectHostTransfer reports a host transfer between previousHostID and
// the host found in snapshot. An empty previousHostID means no host was
// tracked. A snapshot without a host never produces a transfer.
func DetectHostTransfer(previousHostID string, snapshot []entities.RawRecord) *entities.HostTransfer {
	newHostID, ok := FindHost(snapshot)
	if !ok || newHostID == previousHostID {
		return nil
	}
	return &entities.HostTransfer{FromID: previousHostID, ToID: newHostID}
}

// HostTracker applies a HostPolicy on top of DetectHostTransfer
type HostTracker struct {
	Policy HostPolicy
}

// Detect returns the transfer to emit, if any, and the host id that
// should be tracked after this snapshot.
func (h HostTracker) Detect(previousHostID string, snapshot []entities.RawRecord) (*entities.HostTransfer, string) {
	if _, ok := FindHost(snapshot); !ok {
		if h.Policy == HostPolicyClearOnAbsent {
			return nil, ""
		}
		return nil, previousHostID
	}

	transfer := DetectHostTransfer(previousHostID, snapshot)
	if transfer == nil {
		return nil, previousHostID
	}
	return transfer, transfer.ToID
}
