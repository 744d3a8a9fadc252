package notify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustField(t *testing.T, raw []byte, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	value, ok := fields[key]
	require.True(t, ok, "missing field %q", key)
	return value
}
