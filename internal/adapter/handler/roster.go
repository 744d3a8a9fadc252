package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/errors"
	dto "github.com/johnquangdev/meeting-roster/internal/adapter/dto/roster"
	"github.com/johnquangdev/meeting-roster/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	"github.com/johnquangdev/meeting-roster/internal/domain/repositories"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// PushClock reports when the push source last received a snapshot
type PushClock interface {
	LastPush() (time.Time, bool)
}

// Roster serves the roster, ChangeLog and history of the tracked meeting
type Roster struct {
	service   roster.Service
	meetingID string
	source    string
	events    repositories.ParticipantEventRepository
	pushes    PushClock
	logger    *zap.Logger
}

// NewRosterHandler creates a new roster handler. events and pushes are
// optional.
func NewRosterHandler(service roster.Service, meetingID, source string, events repositories.ParticipantEventRepository, pushes PushClock, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roster{
		service:   service,
		meetingID: meetingID,
		source:    source,
		events:    events,
		pushes:    pushes,
		logger:    logger,
	}
}

// ListParticipants handles GET /meetings/:meeting_id/participants
// @Summary      List participants
// @Description  Returns the current roster of the tracked meeting. active=true hides participants that left
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Param        active      query     bool    false  "Only participants still in the meeting"
// @Success      200  {object}  roster.ParticipantListResponse  "Roster"
// @Failure      404  {object}  map[string]interface{}  "Meeting is not tracked"
// @Router       /meetings/{meeting_id}/participants [get]
func (h *Roster) ListParticipants(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	resp := presenter.ToParticipantListResponse(h.service.Participants(), h.service.HostID(), activeOnly)
	return HandleSuccess(h.logger, c, resp)
}

// GetParticipant handles GET /meetings/:meeting_id/participants/:participant_id
// @Summary      Get participant
// @Description  Returns one roster record, including participants that already left
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Param        participant_id  path  string  true  "Participant ID"
// @Success      200  {object}  roster.ParticipantResponse  "Participant"
// @Failure      404  {object}  map[string]interface{}  "Participant or meeting not found"
// @Router       /meetings/{meeting_id}/participants/{participant_id} [get]
func (h *Roster) GetParticipant(c echo.Context) error {
	id := c.Param("participant_id")
	p, ok := h.service.Participant(id)
	if !ok {
		return HandleError(h.logger, c, errors.ErrParticipantNotFound(id))
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantResponse(p))
}

// GetChangeLog handles GET /meetings/:meeting_id/changelog
// @Summary      Get change log
// @Description  Returns the most recent roster changes, newest first
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Param        limit       query     int     false  "Maximum entries, 0 for all"
// @Success      200  {object}  roster.ChangeLogResponse  "Change log"
// @Failure      400  {object}  map[string]interface{}  "Invalid limit"
// @Router       /meetings/{meeting_id}/changelog [get]
func (h *Roster) GetChangeLog(c echo.Context) error {
	var req dto.ChangeLogRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToChangeLogResponse(h.service.Entries(), req.Limit))
}

// GetStatus handles GET /meetings/:meeting_id/status
// @Summary      Get session status
// @Description  Returns the session state, roster source, host and participant counts
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Success      200  {object}  roster.StatusResponse  "Session status"
// @Failure      404  {object}  map[string]interface{}  "Meeting is not tracked"
// @Router       /meetings/{meeting_id}/status [get]
func (h *Roster) GetStatus(c echo.Context) error {
	var lastPush *time.Time
	if h.pushes != nil {
		if at, ok := h.pushes.LastPush(); ok {
			lastPush = &at
		}
	}

	resp := presenter.ToStatusResponse(
		h.meetingID,
		h.source,
		h.service.Status(),
		h.service.HostID(),
		h.service.Participants(),
		lastPush,
	)
	return HandleSuccess(h.logger, c, resp)
}

// GetReport handles GET /meetings/:meeting_id/report
// @Summary      Get session report
// @Description  Returns the attendance and speaking time report built so far
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Success      200  {object}  entities.SessionReport  "Session report"
// @Failure      404  {object}  map[string]interface{}  "Meeting is not tracked"
// @Router       /meetings/{meeting_id}/report [get]
func (h *Roster) GetReport(c echo.Context) error {
	return HandleSuccess(h.logger, c, h.service.Report())
}

// Refresh handles POST /meetings/:meeting_id/refresh
// @Summary      Request a roster refresh
// @Description  Schedules an immediate reconciliation pass
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Success      200  {object}  roster.RefreshResponse  "Refresh accepted"
// @Failure      503  {object}  map[string]interface{}  "Session failed or not running"
// @Router       /meetings/{meeting_id}/refresh [post]
func (h *Roster) Refresh(c echo.Context) error {
	if h.service.Status() == entities.StatusFailed {
		return HandleError(h.logger, c, errors.ErrSessionFailed(h.meetingID, nil))
	}
	if !h.service.Trigger(roster.TriggerManual) {
		return HandleError(h.logger, c, errors.ErrSessionUnavailable(h.meetingID))
	}
	return HandleSuccess(h.logger, c, &dto.RefreshResponse{Accepted: true})
}

// ListEvents handles GET /meetings/:meeting_id/events
// @Summary      List participant events
// @Description  Returns persisted join and leave events, oldest first, with optional filters
// @Tags         Roster
// @Produce      json
// @Param        meeting_id  path      string  true  "Meeting ID"
// @Param        participant_id  query  string  false  "Participant ID"
// @Param        kind            query  string  false  "Event kind"  Enums(join, leave)
// @Param        since           query  string  false  "RFC3339 lower bound on occurred_at"
// @Param        page            query  int     false  "Page number"  default(1)
// @Param        page_size       query  int     false  "Page size"    default(50)
// @Success      200  {object}  roster.EventListResponse  "Event page"
// @Failure      400  {object}  map[string]interface{}  "Invalid filters"
// @Failure      404  {object}  map[string]interface{}  "Event history is not enabled"
// @Failure      500  {object}  map[string]interface{}  "Database error"
// @Router       /meetings/{meeting_id}/events [get]
func (h *Roster) ListEvents(c echo.Context) error {
	if h.events == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Participant event history"))
	}

	req := dto.ListEventsRequest{Page: 1, PageSize: 50}
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	filters := repositories.ParticipantEventFilters{
		ParticipantID: req.ParticipantID,
		Since:         req.Since,
		Limit:         req.PageSize,
		Offset:        (req.Page - 1) * req.PageSize,
	}
	if req.Kind != nil {
		kind := entities.RosterEventKind(*req.Kind)
		filters.Kind = &kind
	}

	ctx := c.Request().Context()
	events, err := h.events.ListByMeeting(ctx, h.meetingID, filters)
	if err != nil {
		return HandleError(h.logger, c, dbError("list participant events", err))
	}
	total, err := h.events.CountByMeeting(ctx, h.meetingID, filters)
	if err != nil {
		return HandleError(h.logger, c, dbError("count participant events", err))
	}

	return HandleSuccess(h.logger, c, presenter.ToEventListResponse(events, total, req.Page, req.PageSize))
}
