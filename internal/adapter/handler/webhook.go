package handler

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/meeting-roster/errors"
)

// webhookDedupeWindow bounds how long a delivered event id is remembered.
// LiveKit retries failed deliveries within a few minutes.
const webhookDedupeWindow = 10 * time.Minute

// ChangeNotifier signals the roster session that the meeting changed
type ChangeNotifier func(ctx context.Context, reason string)

// SeenSet remembers processed webhook ids
type SeenSet interface {
	MarkSeen(key string, ttl time.Duration) bool
}

// WebhookHandler handles LiveKit webhook events
type WebhookHandler struct {
	room          string
	keys          auth.KeyProvider
	allowUnsigned bool
	seen          SeenSet
	notify        ChangeNotifier
	logger        *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. Unsigned payloads are
// only accepted with allowUnsigned, which is meant for the mock client.
func NewWebhookHandler(room, apiKey, apiSecret string, allowUnsigned bool, seen SeenSet, notify ChangeNotifier, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		room:          room,
		keys:          auth.NewSimpleKeyProvider(apiKey, apiSecret),
		allowUnsigned: allowUnsigned,
		seen:          seen,
		notify:        notify,
		logger:        logger.With(zap.String("room", room)),
	}
}

// HandleLiveKitWebhook handles POST /webhooks/livekit. Participant
// events of the tracked room become change signals; everything else is
// acknowledged and dropped.
// @Summary      LiveKit Webhook
// @Description  Receives signed LiveKit webhook events for the tracked room
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        Authorization  header  string  true  "LiveKit webhook signature"
// @Success      200  {object}  map[string]interface{}  "Event acknowledged"
// @Failure      400  {object}  map[string]interface{}  "Malformed event"
// @Failure      401  {object}  map[string]interface{}  "Invalid signature"
// @Router       /webhooks/livekit [post]
func (h *WebhookHandler) HandleLiveKitWebhook(c echo.Context) error {
	event, err := h.receive(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	ack := map[string]interface{}{"status": "ok", "event": event.Event}

	if event.Room == nil || event.Room.Name != h.room {
		return HandleSuccess(h.logger, c, ack)
	}

	if event.Id != "" && h.seen != nil && h.seen.MarkSeen("livekit:webhook:"+event.Id, webhookDedupeWindow) {
		h.logger.Debug("livekit.webhook.duplicate", zap.String("id", event.Id))
		ack["duplicate"] = true
		return HandleSuccess(h.logger, c, ack)
	}

	switch event.Event {
	case "participant_joined", "participant_left", "participant_connection_aborted":
		// Skip if participant is egress (not a real user)
		if event.Participant != nil && strings.HasPrefix(event.Participant.Identity, "EG_") {
			return HandleSuccess(h.logger, c, ack)
		}
	case "room_finished":
	default:
		return HandleSuccess(h.logger, c, ack)
	}

	h.logger.Info("livekit.webhook.change",
		zap.String("event", event.Event),
		zap.String("identity", event.GetParticipant().GetIdentity()),
	)
	if h.notify != nil {
		h.notify(c.Request().Context(), event.Event)
	}
	ack["triggered"] = true
	return HandleSuccess(h.logger, c, ack)
}

func (h *WebhookHandler) receive(c echo.Context) (*livekit.WebhookEvent, error) {
	r := c.Request()
	if r.Header.Get("Authorization") != "" || !h.allowUnsigned {
		event, err := webhook.ReceiveWebhookEvent(r, h.keys)
		if err != nil {
			h.logger.Warn("livekit.webhook.unauthorized", zap.Error(err))
			return nil, errors.ErrWebhookUnauthorized(err)
		}
		return event, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.ErrInvalidPayload().WithDetail("reason", err.Error())
	}
	event := &livekit.WebhookEvent{}
	if err := protojson.Unmarshal(body, event); err != nil {
		return nil, errors.ErrInvalidPayload().WithDetail("reason", err.Error())
	}
	return event, nil
}
