package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeRatio(t *testing.T) {
	tests := []struct {
		name  string
		num   float64
		den   float64
		valid bool
		value float64
	}{
		{"normal division", 3, 4, true, 0.75},
		{"zero numerator", 0, 10, true, 0},
		{"zero denominator", 5, 0, false, 0},
		{"negative denominator", 5, -1, false, 0},
		{"nan denominator", 5, math.NaN(), false, 0},
		{"nan numerator", math.NaN(), 5, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SafeRatio(tt.num, tt.den)
			assert.Equal(t, tt.valid, r.Valid)
			if tt.valid {
				assert.InDelta(t, tt.value, r.Value, 1e-9)
			}
		})
	}
}

func TestZeroDockSnapshotRatioIsSentinel(t *testing.T) {
	snap := LiveSnapshot{StationID: "500", RentableCount: 0, TotalDocks: 0}

	require.False(t, snap.DocksKnown())
	r := snap.RentableRatio()
	assert.False(t, r.Valid, "zero docks must yield the invalid sentinel, not 0.0")
}

func TestRatioJSON(t *testing.T) {
	data, err := json.Marshal(Ratio{Value: 0.5, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "0.5", string(data))

	data, err = json.Marshal(Ratio{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var r Ratio
	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.False(t, r.Valid)
	require.NoError(t, json.Unmarshal([]byte("0.25"), &r))
	assert.True(t, r.Valid)
	assert.Equal(t, 0.25, r.Value)
}

func TestDegraded(t *testing.T) {
	assert.False(t, ReconciledView{LiveState: LiveOK}.Degraded())
	assert.False(t, ReconciledView{LiveState: LiveNotRequested}.Degraded())
	assert.True(t, ReconciledView{LiveState: LiveUnavailable}.Degraded())
	assert.True(t, ReconciledView{LiveState: LiveMissing}.Degraded())
}
