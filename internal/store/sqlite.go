package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/meteo-forecast-service/internal/weather"
)

// Store is a sqlite-backed implementation of the weather record store. One
// process-wide handle is opened at startup and injected into the ingestion
// and query layers.
type Store struct {
	db *sql.DB
}

// Open creates a Store over the sqlite database at path (":memory:" for an
// in-memory database) and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %q: %w", path, err)
	}

	// A single connection keeps the whole-table replace serialized against
	// readers and makes :memory: databases behave across goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Surrogate autoincrement key plus a unique constraint on (loc, date):
// one record per location and day.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS weather_data (
	"index" INTEGER PRIMARY KEY AUTOINCREMENT,
	loc     TEXT NOT NULL,
	lat     REAL NOT NULL,
	lon     REAL NOT NULL,
	date    TEXT NOT NULL,
	temp    REAL NOT NULL,
	rain    REAL NOT NULL,
	wind    REAL NOT NULL,
	UNIQUE (loc, date)
)`

const insertSQL = `
INSERT INTO weather_data ("index", loc, lat, lon, date, temp, rain, wind)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `"index", loc, lat, lon, date, temp, rain, wind`

// ReplaceAll atomically discards all rows and inserts the given records.
// Readers see either the old dataset or the new one, never a mix.
func (s *Store) ReplaceAll(ctx context.Context, records []weather.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM weather_data`); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Index, r.Loc, r.Lat, r.Lon, r.Date.String(), r.Temp, r.Rain, r.Wind,
		); err != nil {
			return fmt.Errorf("insert record %d (%s %s): %w", r.Index, r.Loc, r.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// All returns every stored record.
func (s *Store) All(ctx context.Context) ([]weather.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM weather_data ORDER BY "index"`)
}

// ByLocation returns all records for loc. No records is not an error.
func (s *Store) ByLocation(ctx context.Context, loc string) ([]weather.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM weather_data WHERE loc = ? ORDER BY date`, loc)
}

// ByLocationAndDate returns the records for loc on exactly day.
func (s *Store) ByLocationAndDate(ctx context.Context, loc string, day weather.Date) ([]weather.Record, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM weather_data WHERE loc = ? AND date = ?`, loc, day.String())
}

// ByLocationInRange returns records for loc with after < date <= until,
// ordered by date ascending. ISO dates compare correctly as strings.
func (s *Store) ByLocationInRange(ctx context.Context, loc string, after, until weather.Date) ([]weather.Record, error) {
	return s.query(ctx,
		`SELECT `+selectColumns+` FROM weather_data WHERE loc = ? AND date > ? AND date <= ? ORDER BY date`,
		loc, after.String(), until.String())
}

// TopByMetric returns the n records with the largest value of the given
// metric, ordered descending.
func (s *Store) TopByMetric(ctx context.Context, metric weather.Metric, n int) ([]weather.Record, error) {
	var column string
	switch metric {
	case weather.MetricTemperature:
		column = "temp"
	case weather.MetricPrecipitation:
		column = "rain"
	case weather.MetricWindSpeed:
		column = "wind"
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	return s.query(ctx,
		`SELECT `+selectColumns+` FROM weather_data ORDER BY `+column+` DESC LIMIT ?`, n)
}

// ExportCSV writes the full table as CSV, header included.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := s.All(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "loc", "lat", "lon", "date", "temp", "rain", "wind"}); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.Index, 10),
			r.Loc,
			strconv.FormatFloat(r.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Lon, 'f', -1, 64),
			r.Date.String(),
			strconv.FormatFloat(r.Temp, 'f', -1, 64),
			strconv.FormatFloat(r.Rain, 'f', -1, 64),
			strconv.FormatFloat(r.Wind, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query weather_data: %w", err)
	}
	defer rows.Close()

	records := make([]weather.Record, 0)
	for rows.Next() {
		var r weather.Record
		var date string
		if err := rows.Scan(&r.Index, &r.Loc, &r.Lat, &r.Lon, &date, &r.Temp, &r.Rain, &r.Wind); err != nil {
			return nil, fmt.Errorf("scan weather row: %w", err)
		}
		if r.Date, err = weather.ParseDate(date); err != nil {
			return nil, fmt.Errorf("scan weather row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
