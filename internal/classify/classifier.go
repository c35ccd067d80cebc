// Package classify derives a single effective see-bike rate and a
// discrete tier per station from the full historical series.
package classify

import (
	"sort"

	"ubike-availability/internal/history"
	"ubike-availability/internal/models"
)

// Fixed classification thresholds.
const (
	// SeeBikeThreshold is the rent ratio above which an hour counts as
	// "bikes were available to see".
	SeeBikeThreshold = 0.2
	// HighMin and MediumMin bound the tiers: rate >= HighMin is HIGH,
	// rate >= MediumMin is MEDIUM, anything below is LOW.
	HighMin   = 0.9
	MediumMin = 0.6
)

// Classifier ranks stations by their historical availability.
type Classifier struct {
	history *history.Store
}

// New creates a Classifier over the given historical store.
func New(hist *history.Store) *Classifier {
	return &Classifier{history: hist}
}

// ClassifyAll computes one TierResult per station present in the
// historical store, ordered by effective see-bike rate descending with
// ties broken by station id ascending. The ordering is deterministic
// across calls on the same store.
//
// Stations with zero historical rows are excluded rather than assigned
// LOW: absence of data is not evidence of low availability.
func (c *Classifier) ClassifyAll() []models.TierResult {
	ids := c.history.AllStationIDs()
	results := make([]models.TierResult, 0, len(ids))

	for _, id := range ids {
		observed := 0
		hits := 0
		for stat := range c.history.SeriesFor(id) {
			observed++
			if stat.AvgRentRatio > SeeBikeThreshold {
				hits++
			}
		}
		if observed == 0 {
			continue
		}
		rate := float64(hits) / float64(observed)
		results = append(results, models.TierResult{
			StationID:            id,
			EffectiveSeeBikeRate: rate,
			Tier:                 tierFor(rate),
			ObservedHours:        observed,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].EffectiveSeeBikeRate != results[j].EffectiveSeeBikeRate {
			return results[i].EffectiveSeeBikeRate > results[j].EffectiveSeeBikeRate
		}
		return results[i].StationID < results[j].StationID
	})
	return results
}

// TopN returns the first n ranked results; n <= 0 or beyond the result
// count returns everything.
func (c *Classifier) TopN(n int) []models.TierResult {
	results := c.ClassifyAll()
	if n <= 0 || n >= len(results) {
		return results
	}
	return results[:n]
}

func tierFor(rate float64) models.Tier {
	switch {
	case rate >= HighMin:
		return models.TierHigh
	case rate >= MediumMin:
		return models.TierMedium
	default:
		return models.TierLow
	}
}
