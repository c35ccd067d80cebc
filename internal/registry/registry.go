// Package registry holds the canonical, deduplicated station metadata.
// It is loaded once at startup and read-only for the process lifetime;
// Reload swaps in a fresh table under lock rather than mutating in place.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"ubike-availability/internal/models"
)

// Source column order of the station metadata export. The leading
// ordinal column is discarded on load.
const (
	colOrdinal = iota
	colID
	colName
	colDistrict
	colLatitude
	colLongitude
	colAddress
	colDistrictEN
	colNameEN
	colActive

	// requiredColumns covers ordinal through address.
	requiredColumns = colAddress + 1
)

// DuplicateStationError reports two rows sharing an id with materially
// different metadata. Exact duplicate rows are deduplicated silently.
type DuplicateStationError struct {
	ID string
}

func (e *DuplicateStationError) Error() string {
	return fmt.Sprintf("station %s appears twice with conflicting metadata", e.ID)
}

// Registry provides lookup over station metadata.
type Registry struct {
	mu sync.RWMutex

	byID    map[string]models.Station
	byName  map[string]models.Station
	ordered []string // ids sorted by station name, stable on ties
}

// Load reads the station metadata file and builds a Registry.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()

	r := &Registry{}
	byID, byName, ordered, err := parse(f, path)
	if err != nil {
		return nil, err
	}
	r.byID = byID
	r.byName = byName
	r.ordered = ordered
	return r, nil
}

// Reload replaces the registry contents from the given file. The swap is
// atomic; readers see either the old table or the new one.
func (r *Registry) Reload(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()

	byID, byName, ordered, err := parse(f, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = byID
	r.byName = byName
	r.ordered = ordered
	return nil
}

func parse(src io.Reader, name string) (map[string]models.Station, map[string]models.Station, []string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	byID := make(map[string]models.Station)
	byName := make(map[string]models.Station)
	var loadOrder []models.Station

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, &models.SchemaError{Source: name, Row: row + 1, Reason: err.Error()}
		}
		row++

		if len(record) < requiredColumns {
			return nil, nil, nil, &models.SchemaError{
				Source: name,
				Row:    row,
				Reason: fmt.Sprintf("expected at least %d columns, got %d", requiredColumns, len(record)),
			}
		}

		st := models.Station{
			ID:       strings.TrimSpace(record[colID]),
			Name:     record[colName],
			District: record[colDistrict],
			Address:  record[colAddress],
		}
		if st.ID == "" || st.Name == "" {
			return nil, nil, nil, &models.SchemaError{Source: name, Row: row, Reason: "missing station id or name"}
		}
		if len(record) > colDistrictEN {
			st.DistrictEN = record[colDistrictEN]
		}
		if len(record) > colNameEN {
			st.NameEN = record[colNameEN]
		}
		if len(record) > colActive {
			st.Active = parseFlag(record[colActive])
		}

		// Unparseable coordinates keep the station in tabular views
		// but exclude it from spatial ones.
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[colLatitude]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record[colLongitude]), 64)
		if latErr == nil && lonErr == nil {
			st.Latitude = lat
			st.Longitude = lon
			st.HasCoords = true
		}

		if prev, ok := byID[st.ID]; ok {
			if prev == st {
				continue // exact duplicate row, first occurrence wins
			}
			return nil, nil, nil, &DuplicateStationError{ID: st.ID}
		}
		byID[st.ID] = st
		if _, ok := byName[st.Name]; !ok {
			// First-loaded record wins on duplicate names.
			byName[st.Name] = st
		}
		loadOrder = append(loadOrder, st)
	}

	if row == 0 {
		return nil, nil, nil, &models.SchemaError{Source: name, Reason: "empty source"}
	}

	sort.SliceStable(loadOrder, func(i, j int) bool {
		if loadOrder[i].Name != loadOrder[j].Name {
			return loadOrder[i].Name < loadOrder[j].Name
		}
		return loadOrder[i].ID < loadOrder[j].ID
	})
	ordered := make([]string, len(loadOrder))
	for i, st := range loadOrder {
		ordered[i] = st.ID
	}

	return byID, byName, ordered, nil
}

func parseFlag(val string) bool {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "t", "yes", "y":
		return true
	}
	return false
}

// ByID looks up a station by id.
func (r *Registry) ByID(id string) (models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byID[id]
	if !ok {
		return models.Station{}, fmt.Errorf("station %s: %w", id, models.ErrNotFound)
	}
	return st, nil
}

// ByName looks up a station by exact, case-sensitive name.
func (r *Registry) ByName(name string) (models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byName[name]
	if !ok {
		return models.Station{}, fmt.Errorf("station %q: %w", name, models.ErrNotFound)
	}
	return st, nil
}

// All returns every station sorted by name, ties broken by id.
func (r *Registry) All() []models.Station {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stations := make([]models.Station, 0, len(r.ordered))
	for _, id := range r.ordered {
		stations = append(stations, r.byID[id])
	}
	return stations
}

// Len reports the number of stations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
