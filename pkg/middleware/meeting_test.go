package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestRequireMeeting(t *testing.T) {
	e := echo.New()
	e.GET("/meetings/:meeting_id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RequireMeeting("standup"))

	tests := []struct {
		path string
		want int
	}{
		{path: "/meetings/standup", want: http.StatusNoContent},
		{path: "/meetings/retro", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		require.Equal(t, tt.want, rec.Code, tt.path)
	}
}
