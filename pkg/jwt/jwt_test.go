package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPushTokenRoundTrip(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour)

	token, err := m.GeneratePushToken("standup", "zoom-app")
	require.NoError(t, err)

	claims, err := m.ValidatePushToken(token)
	require.NoError(t, err)
	require.Equal(t, "standup", claims.MeetingID)
	require.Equal(t, "zoom-app", claims.Subject)
	require.Equal(t, time.Hour, m.GetExpiry())
}

func TestPushTokenRejected(t *testing.T) {
	m := NewManager("0123456789abcdef", time.Hour)
	token, err := m.GeneratePushToken("standup", "zoom-app")
	require.NoError(t, err)

	_, err = NewManager("another-secret-value", time.Hour).ValidatePushToken(token)
	require.Error(t, err)

	expired := NewManager("0123456789abcdef", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.ValidatePushToken(token)
	require.Error(t, err)

	_, err = m.ValidatePushToken("not-a-token")
	require.Error(t, err)
}
