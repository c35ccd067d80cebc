// Package present renders reconciled views and tier results into
// locale-labelled display records for the UI boundary. All page variants
// consume the same records; only the label set differs per locale.
package present

import (
	"fmt"

	"ubike-availability/internal/models"
)

// Labels is one locale's label set.
type Labels struct {
	District        string
	Address         string
	RentCount       string
	ReturnCount     string
	RentRatio       string
	ReturnRatio     string
	LiveRentable    string
	LiveReturnable  string
	LiveUnavailable string
	LiveMissing     string
	DocksOffline    string
	Tier            string
	SeeBikeRate     string
}

var locales = map[string]Labels{
	"zh-TW": {
		District:        "行政區",
		Address:         "地址",
		RentCount:       "可借車輛數",
		ReturnCount:     "可還車輛數",
		RentRatio:       "可借機率",
		ReturnRatio:     "可還機率",
		LiveRentable:    "目前可借",
		LiveReturnable:  "目前可還",
		LiveUnavailable: "即時資料暫時無法取得",
		LiveMissing:     "即時資料無此站點",
		DocksOffline:    "站點離線或車柱數不明",
		Tier:            "分級",
		SeeBikeRate:     "有車率",
	},
	"en": {
		District:        "District",
		Address:         "Address",
		RentCount:       "Avg. rentable bikes",
		ReturnCount:     "Avg. returnable docks",
		RentRatio:       "Rent probability",
		ReturnRatio:     "Return probability",
		LiveRentable:    "Rentable now",
		LiveReturnable:  "Returnable now",
		LiveUnavailable: "live data unavailable",
		LiveMissing:     "station absent from live feed",
		DocksOffline:    "station offline or dock count unknown",
		Tier:            "Tier",
		SeeBikeRate:     "See-bike rate",
	},
}

// LabelsFor returns the label set for a locale, falling back to English.
func LabelsFor(locale string) Labels {
	if l, ok := locales[locale]; ok {
		return l
	}
	return locales["en"]
}

// Record is one renderable display record.
type Record struct {
	Title  string   `json:"title"`
	Lines  []string `json:"lines"`
	Notice string   `json:"notice,omitzero"`
}

// Formatter turns domain records into display records.
type Formatter struct {
	labels Labels
}

// NewFormatter creates a Formatter for the given locale.
func NewFormatter(locale string) *Formatter {
	return &Formatter{labels: LabelsFor(locale)}
}

// HourWindow renders an hour of day as its display window, e.g.
// "08:00 - 09:00".
func (f *Formatter) HourWindow(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:00", hour, (hour+1)%24)
}

// View renders a reconciled view. Degraded live state produces an
// explicit notice; it is never silently dropped.
func (f *Formatter) View(v models.ReconciledView) Record {
	rec := Record{
		Title: fmt.Sprintf("%s (%s)", v.Station.Name, f.HourWindow(v.Hour)),
		Lines: []string{
			fmt.Sprintf("%s: %s", f.labels.District, v.Station.District),
			fmt.Sprintf("%s: %s", f.labels.Address, v.Station.Address),
			fmt.Sprintf("%s: %.2f", f.labels.RentCount, v.Historical.AvgRentCount),
			fmt.Sprintf("%s: %.2f", f.labels.ReturnCount, v.Historical.AvgReturnCount),
			fmt.Sprintf("%s: %s", f.labels.RentRatio, percent(v.Historical.AvgRentRatio)),
			fmt.Sprintf("%s: %s", f.labels.ReturnRatio, percent(v.Historical.AvgReturnRatio)),
		},
	}

	switch v.LiveState {
	case models.LiveOK:
		rec.Lines = append(rec.Lines,
			fmt.Sprintf("%s: %d", f.labels.LiveRentable, v.Live.RentableCount),
			fmt.Sprintf("%s: %d", f.labels.LiveReturnable, v.Live.ReturnableCount),
		)
		if !v.Live.DocksKnown() {
			rec.Notice = f.labels.DocksOffline
		}
	case models.LiveUnavailable:
		rec.Notice = f.labels.LiveUnavailable
	case models.LiveMissing:
		rec.Notice = f.labels.LiveMissing
	}

	return rec
}

// Tier renders a tier result.
func (f *Formatter) Tier(t models.TierResult) Record {
	return Record{
		Title: t.StationID,
		Lines: []string{
			fmt.Sprintf("%s: %s", f.labels.Tier, t.Tier),
			fmt.Sprintf("%s: %s", f.labels.SeeBikeRate, percent(t.EffectiveSeeBikeRate)),
		},
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
