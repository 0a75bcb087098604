package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeItem(t *testing.T, raw string) Item {
	t.Helper()
	var it Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	return it
}
