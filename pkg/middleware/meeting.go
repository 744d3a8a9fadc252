package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// MeetingParam is the path parameter holding the meeting id
const MeetingParam = "meeting_id"

// RequireMeeting middleware: only serve requests addressed to the meeting
// this process tracks
func RequireMeeting(meetingID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Param(MeetingParam))
			if id == "" {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"error":   "invalid_meeting_id",
					"message": "meeting ID is required",
				})
			}
			if id != meetingID {
				return c.JSON(http.StatusNotFound, map[string]interface{}{
					"error":   "meeting_not_found",
					"message": "meeting is not tracked by this service",
				})
			}
			return next(c)
		}
	}
}
