// Package store loads raw series points from a SQLite database for
// offline analysis. The pure engine never touches it; only the CLI
// does.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/spcwise/xmr/internal/series"
)

// DB wraps a SQLite database holding one or more named metric series.
type DB struct {
	db   *sql.DB
	path string
}

// Open opens the series database at path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open series database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping series database: %w", err)
	}
	return &DB{db: db, path: path}, nil
}

// EnsureSchema creates the points table if it does not exist
func (d *DB) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS points (
			metric TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			value REAL NOT NULL,
			confidence REAL,
			PRIMARY KEY (metric, timestamp)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create points table: %w", err)
	}
	return nil
}

// LoadPoints returns the raw points recorded for a metric, in stored
// timestamp order. Normalization handles any remaining disorder or
// duplication.
func (d *DB) LoadPoints(ctx context.Context, metric string) ([]series.RawPoint, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT timestamp, value, confidence
		 FROM points
		 WHERE metric = ?
		 ORDER BY timestamp`,
		metric,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []series.RawPoint
	for rows.Next() {
		var rp series.RawPoint
		var confidence sql.NullFloat64
		if err := rows.Scan(&rp.Timestamp, &rp.Value, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			rp.Confidence = &c
		}
		points = append(points, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points: %w", err)
	}
	return points, nil
}

// SavePoints inserts or replaces raw points for a metric
func (d *DB) SavePoints(ctx context.Context, metric string, points []series.RawPoint) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO points (metric, timestamp, value, confidence)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rp := range points {
		var confidence any
		if rp.Confidence != nil {
			confidence = *rp.Confidence
		}
		if _, err := stmt.ExecContext(ctx, metric, rp.Timestamp, rp.Value, confidence); err != nil {
			return fmt.Errorf("failed to insert point: %w", err)
		}
	}
	return tx.Commit()
}

// Metrics lists the metric names present in the database
func (d *DB) Metrics(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT metric FROM points ORDER BY metric`)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}
	return metrics, nil
}

// Close closes the underlying database
func (d *DB) Close() error {
	return d.db.Close()
}
