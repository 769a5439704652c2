package randx

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConnectionIDIsUniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := ConnectionID()

		raw, ok := strings.CutPrefix(id, ConnIDPrefix)
		require.True(t, ok, id)
		_, err := uuid.Parse(raw)
		require.NoError(t, err)

		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestEventIDVersion(t *testing.T) {
	require.EqualValues(t, 4, EventID().Version())
}
