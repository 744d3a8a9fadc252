package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	raw := stderrors.New("bad signature")
	err := ErrWebhookUnauthorized(raw)

	require.Equal(t, http.StatusUnauthorized, err.HTTPCode)
	require.Equal(t, "[WEBHOOK_UNAUTHORIZED] Webhook signature verification failed: bad signature", err.Error())
	require.ErrorIs(t, err, raw)

	require.Equal(t, "[INVALID_PAYLOAD] Invalid payload", ErrInvalidPayload().Error())
}

func TestWithDetailDoesNotShareMaps(t *testing.T) {
	base := ErrSessionUnavailable("m-1")
	extended := base.WithDetail("reason", "stopped")

	require.Equal(t, map[string]string{"meeting_id": "m-1"}, base.Details)
	require.Equal(t, map[string]string{"meeting_id": "m-1", "reason": "stopped"}, extended.Details)
}

func TestErrorCodeString(t *testing.T) {
	require.Equal(t, "SESSION_UNAVAILABLE", ErrorCode_SESSION_UNAVAILABLE.String())
	require.Equal(t, "ErrorCode(999)", ErrorCode(999).String())
}
