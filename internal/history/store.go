// Package history holds the precomputed per-station, per-hour
// availability averages. The table is produced by an external offline
// aggregation job; this process only reads it.
package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ubike-availability/internal/models"
)

// Column aliases accepted in CSV headers. The offline job historically
// emitted the longer "avg_available_*" names.
var columnAliases = map[string]string{
	"station_id":                 "station_id",
	"sno":                        "station_id",
	"hour":                       "hour",
	"avg_rent_count":             "avg_rent_count",
	"avg_available_rent_bike":    "avg_rent_count",
	"avg_return_count":           "avg_return_count",
	"avg_available_return_bike":  "avg_return_count",
	"avg_rent_ratio":             "avg_rent_ratio",
	"avg_available_rent_ratio":   "avg_rent_ratio",
	"avg_return_ratio":           "avg_return_ratio",
	"avg_available_return_ratio": "avg_return_ratio",
}

var requiredColumns = []string{
	"station_id", "hour", "avg_rent_count", "avg_return_count", "avg_rent_ratio", "avg_return_ratio",
}

// Store provides read access to the hourly aggregates, keyed by
// (station id, hour of day). At most one record exists per key.
type Store struct {
	mu sync.RWMutex

	stats map[string]map[int]models.HourlyStat
	ids   []string // sorted station ids present in the store
}

// Load builds a Store from the given source. Files ending in .db,
// .sqlite or .sqlite3 are read as sqlite databases; anything else is
// parsed as CSV.
func Load(source string) (*Store, error) {
	stats, err := load(source)
	if err != nil {
		return nil, err
	}
	s := &Store{}
	s.stats = stats
	s.ids = sortedIDs(stats)
	return s, nil
}

// Reload replaces the store contents from the given source with an
// atomic swap. Readers see either the old table or the new one.
func (s *Store) Reload(source string) error {
	stats, err := load(source)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.ids = sortedIDs(stats)
	return nil
}

func load(source string) (map[string]map[int]models.HourlyStat, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".db", ".sqlite", ".sqlite3":
		return loadSQLite(source)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open stats file: %w", err)
		}
		defer f.Close()
		return parseCSV(f, source)
	}
}

func parseCSV(src io.Reader, name string) (map[string]map[int]models.HourlyStat, error) {
	reader := csv.NewReader(src)

	header, err := reader.Read()
	if err != nil {
		return nil, &models.SchemaError{Source: name, Reason: "missing header row"}
	}

	// Map canonical column name to position.
	cols := make(map[string]int)
	for i, h := range header {
		if canonical, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			cols[canonical] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, &models.SchemaError{Source: name, Reason: fmt.Sprintf("missing column %s", col)}
		}
	}

	stats := make(map[string]map[int]models.HourlyStat)
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.SchemaError{Source: name, Row: row + 1, Reason: err.Error()}
		}
		row++

		get := func(col string) string { return strings.TrimSpace(record[cols[col]]) }

		stat := models.HourlyStat{StationID: get("station_id")}
		if stat.StationID == "" {
			return nil, &models.SchemaError{Source: name, Row: row, Reason: "missing station_id"}
		}
		stat.Hour, err = strconv.Atoi(get("hour"))
		if err != nil {
			return nil, &models.SchemaError{Source: name, Row: row, Reason: fmt.Sprintf("unparseable hour %q", get("hour"))}
		}
		stat.AvgRentCount, err = parseCount(get("avg_rent_count"))
		if err == nil {
			stat.AvgReturnCount, err = parseCount(get("avg_return_count"))
		}
		if err == nil {
			stat.AvgRentRatio, err = parseRatio(get("avg_rent_ratio"))
		}
		if err == nil {
			stat.AvgReturnRatio, err = parseRatio(get("avg_return_ratio"))
		}
		if err != nil {
			return nil, &models.SchemaError{Source: name, Row: row, Reason: err.Error()}
		}

		if err := insert(stats, stat); err != nil {
			return nil, &models.SchemaError{Source: name, Row: row, Reason: err.Error()}
		}
	}

	return stats, nil
}

func parseCount(val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable count %q", val)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative count %v", f)
	}
	return f, nil
}

func parseRatio(val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable ratio %q", val)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("ratio %v out of range [0,1]", f)
	}
	return f, nil
}

func insert(stats map[string]map[int]models.HourlyStat, stat models.HourlyStat) error {
	if stat.Hour < 0 || stat.Hour > 23 {
		return fmt.Errorf("hour %d out of range [0,23]", stat.Hour)
	}
	hours, ok := stats[stat.StationID]
	if !ok {
		hours = make(map[int]models.HourlyStat)
		stats[stat.StationID] = hours
	}
	if _, dup := hours[stat.Hour]; dup {
		return fmt.Errorf("duplicate record for station %s hour %d", stat.StationID, stat.Hour)
	}
	hours[stat.Hour] = stat
	return nil
}

func sortedIDs(stats map[string]map[int]models.HourlyStat) []string {
	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the aggregate for a station at the given hour. A missing
// hour is models.ErrNotFound, not a zero-filled record.
func (s *Store) Get(stationID string, hour int) (models.HourlyStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stat, ok := s.stats[stationID][hour]
	if !ok {
		return models.HourlyStat{}, fmt.Errorf("station %s hour %d: %w", stationID, hour, models.ErrNotFound)
	}
	return stat, nil
}

// SeriesFor yields the station's aggregates ordered by hour ascending.
// The series may be sparse; a station with no rows yields nothing.
func (s *Store) SeriesFor(stationID string) iter.Seq[models.HourlyStat] {
	s.mu.RLock()
	hours := s.stats[stationID]
	series := make([]models.HourlyStat, 0, len(hours))
	for _, stat := range hours {
		series = append(series, stat)
	}
	s.mu.RUnlock()

	sort.Slice(series, func(i, j int) bool { return series[i].Hour < series[j].Hour })

	return func(yield func(models.HourlyStat) bool) {
		for _, stat := range series {
			if !yield(stat) {
				return
			}
		}
	}
}

// AllStationIDs returns the sorted set of station ids present in the
// store. It may be a superset or subset of the registry's ids; a join
// miss between the two is expected, not exceptional.
func (s *Store) AllStationIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Len reports the number of stations with at least one record.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stats)
}
