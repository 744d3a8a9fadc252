package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-roster/pkg/jwt"
)

// Echo context keys set by EchoPushAuth
const (
	PushClaimsKey  = "push_claims"
	PushSubjectKey = "push_subject"
)

// EchoPushAuth returns an Echo middleware that validates the push token
// of the in-meeting client and sets "push_claims" (*jwt.Claims) and
// "push_subject" (string) into Echo context. Tokens minted for another
// meeting are rejected.
func EchoPushAuth(manager *jwt.Manager, meetingID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			claims, err := manager.ValidatePushToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}
			if claims.MeetingID != meetingID {
				return echo.NewHTTPError(http.StatusForbidden, "Token is not valid for this meeting")
			}

			c.Set(PushClaimsKey, claims)
			c.Set(PushSubjectKey, claims.Subject)

			return next(c)
		}
	}
}

// GetPushSubject returns the authenticated push client, if any
func GetPushSubject(c echo.Context) (string, bool) {
	subject, ok := c.Get(PushSubjectKey).(string)
	return subject, ok
}

func extractToken(r *http.Request) string {
	// Expected format: "Bearer <token>"
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
