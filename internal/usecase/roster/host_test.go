package roster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
)

func TestDetectHostTransfer(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		snapshot []entities.RawRecord
		expected *entities.HostTransfer
	}{
		{
			name:     "first host",
			snapshot: []entities.RawRecord{rec("A", entities.RoleCodeHost), rec("B", 0)},
			expected: &entities.HostTransfer{ToID: "A"},
		},
		{
			name:     "same host",
			previous: "A",
			snapshot: []entities.RawRecord{rec("A", entities.RoleCodeHost)},
		},
		{
			name:     "host changed",
			previous: "A",
			snapshot: []entities.RawRecord{rec("A", 0), rec("B", entities.RoleCodeHost)},
			expected: &entities.HostTransfer{FromID: "A", ToID: "B"},
		},
		{
			name:     "no host in snapshot",
			previous: "A",
			snapshot: []entities.RawRecord{rec("A", entities.RoleCodeCoHost)},
		},
		{
			name:     "empty snapshot",
			previous: "A",
		},
		{
			name:     "first of several hosts wins",
			snapshot: []entities.RawRecord{rec("B", entities.RoleCodeHost), rec("C", entities.RoleCodeHost)},
			expected: &entities.HostTransfer{ToID: "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DetectHostTransfer(tt.previous, tt.snapshot))
		})
	}
}

func TestHostTrackerPolicies(t *testing.T) {
	noHost := []entities.RawRecord{rec("A", 0)}

	transfer, tracked := HostTracker{Policy: HostPolicyKeepLastKnown}.Detect("A", noHost)
	require.Nil(t, transfer)
	require.Equal(t, "A", tracked)

	transfer, tracked = HostTracker{Policy: HostPolicyClearOnAbsent}.Detect("A", noHost)
	require.Nil(t, transfer)
	require.Empty(t, tracked)

	transfer, tracked = HostTracker{}.Detect("A", []entities.RawRecord{rec("B", entities.RoleCodeHost)})
	require.Equal(t, &entities.HostTransfer{FromID: "A", ToID: "B"}, transfer)
	require.Equal(t, "B", tracked)
}

func TestParseHostPolicy(t *testing.T) {
	p, err := ParseHostPolicy("")
	require.NoError(t, err)
	require.Equal(t, HostPolicyKeepLastKnown, p)

	p, err = ParseHostPolicy(" Clear ")
	require.NoError(t, err)
	require.Equal(t, HostPolicyClearOnAbsent, p)
	require.Equal(t, "clear", p.String())

	_, err = ParseHostPolicy("drop")
	require.Error(t, err)
}
