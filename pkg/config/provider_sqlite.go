package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite-backed parameter storage
type SQLiteProvider struct {
	db      *sql.DB
	dbPath  string
	profile string
}

// NewSQLiteProvider creates a new SQLite parameter provider reading the
// named profile (the empty string selects "default").
func NewSQLiteProvider(dbPath, profile string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if profile == "" {
		profile = "default"
	}
	return &SQLiteProvider{
		db:      db,
		dbPath:  dbPath,
		profile: profile,
	}, nil
}

// LoadParams loads engine parameters from the database. A missing
// profile row yields the defaults rather than an error, so a fresh
// database works out of the box.
func (s *SQLiteProvider) LoadParams() (*Params, error) {
	query := `
		SELECT min_data_points, npl_scaling, url_scaling,
		       quartile_fraction, outlier_max_iterations, auto_lock_ratio
		FROM engine_params
		WHERE profile = ?`

	params := DefaultParams()
	err := s.db.QueryRow(query, s.profile).Scan(
		&params.MinDataPoints,
		&params.NPLScaling,
		&params.URLScaling,
		&params.QuartileFraction,
		&params.OutlierMaxIterations,
		&params.AutoLockRatio,
	)
	if err == sql.ErrNoRows {
		return &params, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load engine params: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters for profile %q: %w", s.profile, err)
	}
	return &params, nil
}

// SaveParams writes the parameter set back to the provider's profile
func (s *SQLiteProvider) SaveParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO engine_params (profile, min_data_points, npl_scaling, url_scaling,
		                           quartile_fraction, outlier_max_iterations, auto_lock_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			min_data_points = excluded.min_data_points,
			npl_scaling = excluded.npl_scaling,
			url_scaling = excluded.url_scaling,
			quartile_fraction = excluded.quartile_fraction,
			outlier_max_iterations = excluded.outlier_max_iterations,
			auto_lock_ratio = excluded.auto_lock_ratio`,
		s.profile,
		params.MinDataPoints,
		params.NPLScaling,
		params.URLScaling,
		params.QuartileFraction,
		params.OutlierMaxIterations,
		params.AutoLockRatio,
	)
	if err != nil {
		return fmt.Errorf("failed to save engine params: %w", err)
	}
	return nil
}

// EnsureSchema creates the engine_params table if it does not exist
func (s *SQLiteProvider) EnsureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS engine_params (
			profile TEXT PRIMARY KEY,
			min_data_points INTEGER NOT NULL,
			npl_scaling REAL NOT NULL,
			url_scaling REAL NOT NULL,
			quartile_fraction REAL NOT NULL,
			outlier_max_iterations INTEGER NOT NULL,
			auto_lock_ratio REAL NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create engine_params table: %w", err)
	}
	return nil
}

// IsReadOnly returns false; SQLite providers support SaveParams
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the underlying database
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
