package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveSelection(t *testing.T) {
	base := time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC)

	mapSel := Selection{StationID: "500", Source: SourceMap, At: base}
	listSel := Selection{StationID: "501", Source: SourceList, At: base}

	t.Run("most recent wins", func(t *testing.T) {
		later := listSel
		later.At = base.Add(time.Second)
		winner, ok := ResolveSelection(mapSel, later)
		assert.True(t, ok)
		assert.Equal(t, "501", winner.StationID)
	})

	t.Run("map wins on equal timestamps", func(t *testing.T) {
		winner, ok := ResolveSelection(listSel, mapSel)
		assert.True(t, ok)
		assert.Equal(t, "500", winner.StationID)

		// Order of arguments must not change the outcome.
		winner, ok = ResolveSelection(mapSel, listSel)
		assert.True(t, ok)
		assert.Equal(t, "500", winner.StationID)
	})

	t.Run("map wins with no ordering information", func(t *testing.T) {
		winner, ok := ResolveSelection(
			Selection{StationID: "501", Source: SourceList},
			Selection{StationID: "500", Source: SourceMap},
		)
		assert.True(t, ok)
		assert.Equal(t, "500", winner.StationID)
	})

	t.Run("single signal", func(t *testing.T) {
		winner, ok := ResolveSelection(listSel)
		assert.True(t, ok)
		assert.Equal(t, "501", winner.StationID)
	})

	t.Run("empty signals ignored", func(t *testing.T) {
		winner, ok := ResolveSelection(Selection{}, listSel)
		assert.True(t, ok)
		assert.Equal(t, "501", winner.StationID)

		_, ok = ResolveSelection(Selection{})
		assert.False(t, ok)
	})
}
