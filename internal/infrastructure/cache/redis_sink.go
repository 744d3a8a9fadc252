package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// RedisSink publishes roster events as JSON on a Redis channel
type RedisSink struct {
	client  *redis.Client
	channel string
}

var _ roster.RosterSink = (*RedisSink)(nil)

// NewRedisSink creates a sink publishing on channel
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Notify publishes one event
func (s *RedisSink) Notify(ctx context.Context, event entities.RosterEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Kind, err)
	}
	return nil
}

type eventMessage struct {
	Kind          entities.RosterEventKind `json:"kind"`
	MeetingID     string                   `json:"meeting_id"`
	ParticipantID string                   `json:"participant_id"`
	DisplayName   string                   `json:"display_name"`
	Role          entities.ParticipantRole `json:"role"`
	OccurredAt    int64                    `json:"occurred_at"`
}

func encodeEvent(event entities.RosterEvent) ([]byte, error) {
	payload, err := json.Marshal(eventMessage{
		Kind:          event.Kind,
		MeetingID:     event.MeetingID,
		ParticipantID: event.Participant.ID,
		DisplayName:   event.Participant.DisplayName,
		Role:          event.Participant.Role,
		OccurredAt:    event.OccurredAt.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster event: %w", err)
	}
	return payload, nil
}
