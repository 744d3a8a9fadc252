package passcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPassBegin(t *testing.T) {
	ctx, cancel := PassBegin(context.Background(), "poll", time.Second)
	defer cancel()

	_, hasDeadline := ctx.Deadline()
	require.True(t, hasDeadline)

	meta := GetPassMetadata(ctx)
	require.NotEqual(t, [16]byte{}, [16]byte(meta.PassID))
	require.Equal(t, "poll", meta.Trigger)
	require.False(t, meta.StartTime.IsZero())
	fields := Fields(ctx)
	require.Len(t, fields, 3)
	require.Equal(t, "pass_id", fields[0].Key)
	require.Equal(t, meta.PassID.String(), fields[0].String)
	require.Equal(t, "pass_elapsed", fields[2].Key)
}

func TestFieldsOutsidePass(t *testing.T) {
	require.Empty(t, Fields(context.Background()))
	_, ok := GetPassID(context.Background())
	require.False(t, ok)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err          error
		retryable    bool
		nonRetryable bool
	}{
		{err: nil},
		{err: context.DeadlineExceeded, retryable: true},
		{err: errors.New("dial tcp: connection refused"), retryable: true},
		{err: errors.New("503 Service Unavailable"), retryable: true},
		{err: errors.New("Access Denied."), nonRetryable: true},
		{err: errors.New("invalid bucket name"), nonRetryable: true},
		{err: errors.New("storage unavailable")},
	}

	for _, tt := range tests {
		require.Equal(t, tt.retryable, IsRetryableError(tt.err), "%v", tt.err)
		require.Equal(t, tt.nonRetryable, IsNonRetryableError(tt.err), "%v", tt.err)
	}
}
