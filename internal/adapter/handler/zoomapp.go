package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/errors"
	dto "github.com/johnquangdev/meeting-roster/internal/adapter/dto/roster"
	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/http/middleware"
)

// SnapshotPusher accepts whole roster snapshots
type SnapshotPusher interface {
	Push(records []entities.RawRecord)
}

// ZoomAppHandler receives snapshots from the in-meeting Zoom App client
type ZoomAppHandler struct {
	snapshots SnapshotPusher
	notify    ChangeNotifier
	logger    *zap.Logger
}

// NewZoomAppHandler creates a new Zoom App handler
func NewZoomAppHandler(snapshots SnapshotPusher, notify ChangeNotifier, logger *zap.Logger) *ZoomAppHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZoomAppHandler{
		snapshots: snapshots,
		notify:    notify,
		logger:    logger,
	}
}

// PushSnapshot handles POST /meetings/:meeting_id/zoomapp/snapshot
// @Summary      Push a Zoom App snapshot
// @Description  Accepts the full participant list observed by the in-meeting Zoom App
// @Tags         ZoomApp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Param        request     body      roster.ZoomAppSnapshotRequest  true  "Participant snapshot"
// @Success      200  {object}  roster.SnapshotAcceptedResponse  "Snapshot accepted"
// @Failure      400  {object}  map[string]interface{}  "Invalid snapshot"
// @Failure      401  {object}  map[string]interface{}  "Missing or invalid push token"
// @Router       /meetings/{meeting_id}/zoomapp/snapshot [post]
func (h *ZoomAppHandler) PushSnapshot(c echo.Context) error {
	var req dto.ZoomAppSnapshotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	records, err := req.Records()
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	h.snapshots.Push(records)

	subject, _ := middleware.GetPushSubject(c)
	h.logger.Debug("zoomapp.snapshot.received",
		zap.String("subject", subject),
		zap.Int("participants", len(records)),
	)

	if h.notify != nil {
		h.notify(c.Request().Context(), "zoomapp_snapshot")
	}

	return HandleSuccess(h.logger, c, &dto.SnapshotAcceptedResponse{
		Participants: len(records),
		Triggered:    h.notify != nil,
	})
}
