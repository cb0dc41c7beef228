package repository

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/modules/readings/types"
	"github.com/67070194/TheForecaster-2-PocketEdition-sub001/internal/telemetry"
)

//go:embed sql/insert-reading.sql
var insertReadingSQL string

//go:embed sql/get-recent-readings.sql
var getRecentReadingsSQL string

//go:embed sql/get-readings-between.sql
var getReadingsBetweenSQL string

//go:embed sql/count-readings.sql
var countReadingsSQL string

type ReadingsRepository interface {
	InsertReading(ts time.Time, source string, r telemetry.Reading) error
	RecentReadings(limit int) ([]types.StoredReading, error)
	ReadingsBetween(from time.Time, to time.Time, limit int) ([]types.StoredReading, error)
	CountReadings() (int, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ReadingsRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertReading(ts time.Time, source string, reading telemetry.Reading) error {
	tsStr := ts.UTC().Format(time.RFC3339Nano)
	_, err := r.db.Exec(insertReadingSQL,
		tsStr,
		source,
		nullable(reading.Temperature),
		nullable(reading.Humidity),
		nullable(reading.Pressure),
		nullable(reading.PM1),
		nullable(reading.PM25),
		nullable(reading.PM10),
		nullableInt(reading.AQI),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *repositoryImpl) RecentReadings(limit int) ([]types.StoredReading, error) {
	rows, err := r.db.Query(getRecentReadingsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close recent readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) ReadingsBetween(from time.Time, to time.Time, limit int) ([]types.StoredReading, error) {
	fromStr := from.UTC().Format(time.RFC3339Nano)
	toStr := to.UTC().Format(time.RFC3339Nano)
	rows, err := r.db.Query(getReadingsBetweenSQL, fromStr, toStr, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close readings rows", "error", err)
		}
	}()
	return scanReadings(rows)
}

func (r *repositoryImpl) CountReadings() (int, error) {
	var n int
	err := r.db.QueryRow(countReadingsSQL).Scan(&n)
	return n, err
}

func scanReadings(rows *sql.Rows) ([]types.StoredReading, error) {
	var out []types.StoredReading
	for rows.Next() {
		var rec types.StoredReading
		var ts string
		var temperature, humidity, pressure, pm1, pm25, pm10 sql.NullFloat64
		var aqi sql.NullInt64
		if err := rows.Scan(&ts, &rec.Source, &temperature, &humidity, &pressure, &pm1, &pm25, &pm10, &aqi); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, ts)
			if err2 != nil {
				return nil, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
			}
		}
		rec.Time = t
		rec.Temperature = fromNullFloat(temperature)
		rec.Humidity = fromNullFloat(humidity)
		rec.Pressure = fromNullFloat(pressure)
		rec.PM1 = fromNullFloat(pm1)
		rec.PM25 = fromNullFloat(pm25)
		rec.PM10 = fromNullFloat(pm10)
		rec.AQI = fromNullInt(aqi)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// nullable maps NaN to NULL so unavailable sensors stay unavailable across
// the round trip.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func nullableInt(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return int(v)
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
