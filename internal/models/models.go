package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotFound reports the expected, recoverable absence of a record.
// Callers branch on it with errors.Is rather than treating it as a failure.
var ErrNotFound = errors.New("not found")

// SchemaError reports a malformed input source. It is fatal at load time.
type SchemaError struct {
	Source string
	Row    int
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema error in %s, row %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("schema error in %s: %s", e.Source, e.Reason)
}

// Station represents a bike-share dock location.
type Station struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	District   string  `json:"district"`
	Address    string  `json:"address"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	NameEN     string  `json:"name_en,omitzero"`
	DistrictEN string  `json:"district_en,omitzero"`
	Active     bool    `json:"active"`

	// HasCoords is false when the source coordinates were unparseable.
	// Such stations are excluded from spatial views but kept in tabular ones.
	HasCoords bool `json:"has_coords"`
}

// HourlyStat is a precomputed historical average for one station at one
// hour of day. It is produced by an external offline aggregation job and
// only ever read here.
type HourlyStat struct {
	StationID      string  `json:"station_id"`
	Hour           int     `json:"hour"`
	AvgRentCount   float64 `json:"avg_rent_count"`
	AvgReturnCount float64 `json:"avg_return_count"`
	AvgRentRatio   float64 `json:"avg_rent_ratio"`
	AvgReturnRatio float64 `json:"avg_return_ratio"`
}

// LiveSnapshot is a single point-in-time observation from the live feed.
type LiveSnapshot struct {
	StationID       string    `json:"station_id"`
	ObservedAt      time.Time `json:"observed_at"`
	RentableCount   int       `json:"rentable_count"`
	ReturnableCount int       `json:"returnable_count"`
	TotalDocks      int       `json:"total_docks"`
}

// DocksKnown reports whether the station reported a usable dock count.
// TotalDocks == 0 means the station is offline or unknown, not empty.
func (s LiveSnapshot) DocksKnown() bool {
	return s.TotalDocks > 0
}

// RentableRatio derives the fraction of docks holding a rentable bike.
func (s LiveSnapshot) RentableRatio() Ratio {
	return SafeRatio(float64(s.RentableCount), float64(s.TotalDocks))
}

// ReturnableRatio derives the fraction of docks free for returns.
func (s LiveSnapshot) ReturnableRatio() Ratio {
	return SafeRatio(float64(s.ReturnableCount), float64(s.TotalDocks))
}

// LiveState describes how the live half of a reconciled view was resolved.
type LiveState string

const (
	// LiveOK means the live snapshot was fetched and joined.
	LiveOK LiveState = "ok"
	// LiveUnavailable means the feed could not be fetched; the view holds
	// historical data only (degraded mode).
	LiveUnavailable LiveState = "unavailable"
	// LiveMissing means the feed was healthy but did not report this station.
	LiveMissing LiveState = "missing"
	// LiveNotRequested means the query did not involve live data.
	LiveNotRequested LiveState = ""
)

// ReconciledView combines one station, the historical average for the
// query hour, and optionally the live snapshot for the feed's current
// moment. Built fresh per query, never cached.
type ReconciledView struct {
	Station    Station       `json:"station"`
	Hour       int           `json:"hour"`
	Historical HourlyStat    `json:"historical"`
	Live       *LiveSnapshot `json:"live,omitzero"`
	LiveState  LiveState     `json:"live_state,omitzero"`
	LiveRatio  Ratio         `json:"live_ratio"`
	FetchedAt  time.Time     `json:"fetched_at,omitzero"`
}

// Degraded reports whether the live half of the view could not be joined.
func (v ReconciledView) Degraded() bool {
	return v.LiveState == LiveUnavailable || v.LiveState == LiveMissing
}

// Tier is the discrete availability classification.
type Tier string

const (
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// TierResult is the classification outcome for one station.
type TierResult struct {
	StationID            string  `json:"station_id"`
	EffectiveSeeBikeRate float64 `json:"effective_see_bike_rate"`
	Tier                 Tier    `json:"tier"`
	ObservedHours        int     `json:"observed_hours"`
}

// Ratio is a guarded division result. An invalid Ratio marks a zero or
// missing denominator; it is never conflated with 0.0.
type Ratio struct {
	Value float64
	Valid bool
}

// SafeRatio divides num by den, returning the invalid sentinel when the
// denominator is zero, negative, or not a number.
func SafeRatio(num, den float64) Ratio {
	if den <= 0 || math.IsNaN(den) || math.IsNaN(num) {
		return Ratio{}
	}
	return Ratio{Value: num / den, Valid: true}
}

// MarshalJSON renders an invalid Ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts null as the invalid sentinel.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Valid: true}
	return nil
}
