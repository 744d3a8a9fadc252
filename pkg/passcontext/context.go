package passcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyPassID    KeyContext = "pass_id"
	keyTrigger   KeyContext = "trigger"
	keyStartTime KeyContext = "pass_start_time"
)

// PassMetadata holds metadata for one reconcile or speaking pass
type PassMetadata struct {
	PassID    uuid.UUID
	Trigger   string
	StartTime time.Time
}

// PassBegin derives a fetch context carrying pass metadata. The deadline
// bounds the platform call so a hung SDK cannot stall the roster.
func PassBegin(parentCtx context.Context, trigger string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyPassID, uuid.New())
	ctx = context.WithValue(ctx, keyTrigger, trigger)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())

	return ctx, cancel
}

// GetPassID extracts the pass ID from context
func GetPassID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyPassID).(uuid.UUID)
	return id, ok
}

// GetTrigger extracts what started the pass
func GetTrigger(ctx context.Context) (string, bool) {
	trigger, ok := ctx.Value(keyTrigger).(string)
	return trigger, ok
}

// GetStartTime extracts the pass start time from context
func GetStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyStartTime).(time.Time)
	return startTime, ok
}

// GetPassMetadata extracts all pass metadata from context
func GetPassMetadata(ctx context.Context) *PassMetadata {
	id, _ := GetPassID(ctx)
	trigger, _ := GetTrigger(ctx)
	startTime, _ := GetStartTime(ctx)

	return &PassMetadata{
		PassID:    id,
		Trigger:   trigger,
		StartTime: startTime,
	}
}

// Fields returns the pass metadata as log fields, or nothing outside a pass
func Fields(ctx context.Context) []zap.Field {
	if _, ok := GetPassID(ctx); !ok {
		return nil
	}
	meta := GetPassMetadata(ctx)
	return []zap.Field{
		zap.String("pass_id", meta.PassID.String()),
		zap.String("trigger", meta.Trigger),
		zap.Duration("pass_elapsed", time.Since(meta.StartTime)),
	}
}

// IsRetryableError checks if an error should trigger a retry
// Retryable errors include: network errors, timeouts, rate limits
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Context errors (timeout, cancelled)
	if strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	return false
}

// IsNonRetryableError checks if an error should NOT trigger a retry
func IsNonRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Client errors (4xx except 429)
	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "invalid") ||
		strings.Contains(errStr, "bad request") {
		return true
	}

	// Encoding errors
	if strings.Contains(errStr, "failed to encode") ||
		strings.Contains(errStr, "malformed") {
		return true
	}

	return false
}
