package zoomapp

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-roster/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-roster/internal/usecase/errors"
)

func TestSnapshotStore(t *testing.T) {
	clk := clock.NewMock()
	store := NewSnapshotStore(30*time.Second, clk)

	_, err := store.FetchParticipants(context.Background())
	require.ErrorIs(t, err, usecaseErrors.ErrNoSnapshot)

	pushed := []entities.RawRecord{{ID: "a", RoleCode: entities.RoleCodeHost}}
	store.Push(pushed)
	pushed[0].ID = "mutated"

	records, err := store.FetchParticipants(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", records[0].ID)

	at, ok := store.LastPush()
	require.True(t, ok)
	require.Equal(t, clk.Now(), at)

	clk.Add(time.Minute)
	_, err = store.FetchParticipants(context.Background())
	require.ErrorIs(t, err, usecaseErrors.ErrSnapshotFailed)

	clk.Add(time.Minute)
	_, again := store.FetchParticipants(context.Background())
	require.Equal(t, err.Error(), again.Error(), "stale errors read the same every time")

	store.Push(nil)
	records, err = store.FetchParticipants(context.Background())
	require.NoError(t, err)
	require.Empty(t, records, "an empty push is a valid empty roster")
}
