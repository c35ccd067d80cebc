package history

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"ubike-availability/internal/models"
)

// statsTable is the table name the offline aggregation job writes.
const statsTable = "hourly_station_availability"

type statRow struct {
	StationID      string  `db:"station_id"`
	Hour           int     `db:"hour"`
	AvgRentCount   float64 `db:"avg_rent_count"`
	AvgReturnCount float64 `db:"avg_return_count"`
	AvgRentRatio   float64 `db:"avg_rent_ratio"`
	AvgReturnRatio float64 `db:"avg_return_ratio"`
}

// loadSQLite reads the aggregates table from a sqlite database file.
func loadSQLite(path string) (map[string]map[int]models.HourlyStat, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	defer db.Close()

	const q = `SELECT station_id, hour, avg_rent_count, avg_return_count,
	                  avg_rent_ratio, avg_return_ratio
	           FROM ` + statsTable + `
	           ORDER BY station_id, hour`

	rows, err := db.Queryx(q)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make(map[string]map[int]models.HourlyStat), nil
		}
		return nil, &models.SchemaError{Source: path, Reason: err.Error()}
	}
	defer rows.Close()

	stats := make(map[string]map[int]models.HourlyStat)
	n := 0
	for rows.Next() {
		var r statRow
		if err := rows.StructScan(&r); err != nil {
			return nil, &models.SchemaError{Source: path, Row: n + 1, Reason: err.Error()}
		}
		n++

		if r.AvgRentCount < 0 || r.AvgReturnCount < 0 {
			return nil, &models.SchemaError{Source: path, Row: n, Reason: "negative count"}
		}
		if r.AvgRentRatio < 0 || r.AvgRentRatio > 1 || r.AvgReturnRatio < 0 || r.AvgReturnRatio > 1 {
			return nil, &models.SchemaError{Source: path, Row: n, Reason: "ratio out of range [0,1]"}
		}

		stat := models.HourlyStat{
			StationID:      r.StationID,
			Hour:           r.Hour,
			AvgRentCount:   r.AvgRentCount,
			AvgReturnCount: r.AvgReturnCount,
			AvgRentRatio:   r.AvgRentRatio,
			AvgReturnRatio: r.AvgReturnRatio,
		}
		if err := insert(stats, stat); err != nil {
			return nil, &models.SchemaError{Source: path, Row: n, Reason: err.Error()}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &models.SchemaError{Source: path, Reason: err.Error()}
	}

	return stats, nil
}
