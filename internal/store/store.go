package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jthorne/skywatch/internal/engine"
	_ "modernc.org/sqlite"
)

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		timezone TEXT DEFAULT 'UTC',
		elevation_m REAL DEFAULT 0,
		is_default INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT DEFAULT 'custom',
		requirements TEXT NOT NULL,
		icon TEXT,
		keywords TEXT,
		enabled INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS forecast_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		date TEXT NOT NULL,
		forecast TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(latitude, longitude, date)
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		activity_id TEXT NOT NULL,
		decided_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		for_time DATETIME NOT NULL,
		verdict TEXT NOT NULL,
		score REAL NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_forecast_cache_date ON forecast_cache(latitude, longitude, date);
	CREATE INDEX IF NOT EXISTS idx_decisions_activity ON decisions(activity_id, decided_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveLocation saves or updates a location. Marking a location default clears
// the flag on every other row first.
func (s *Store) SaveLocation(l *engine.Location) error {
	if l.IsDefault {
		if _, err := s.db.Exec(`UPDATE locations SET is_default = 0`); err != nil {
			return err
		}
	}

	query := `INSERT OR REPLACE INTO locations
		(id, name, latitude, longitude, timezone, elevation_m, is_default, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, l.ID, l.Name, l.Coordinates.Latitude, l.Coordinates.Longitude,
		l.Timezone, l.ElevationM, boolToInt(l.IsDefault), time.Now())
	return err
}

// GetLocation retrieves a location by ID
func (s *Store) GetLocation(id string) (*engine.Location, error) {
	query := `SELECT id, name, latitude, longitude, timezone, elevation_m, is_default
		FROM locations WHERE id = ?`
	return s.scanLocation(s.db.QueryRow(query, id))
}

// DefaultLocation retrieves the location marked default
func (s *Store) DefaultLocation() (*engine.Location, error) {
	query := `SELECT id, name, latitude, longitude, timezone, elevation_m, is_default
		FROM locations WHERE is_default = 1 LIMIT 1`
	return s.scanLocation(s.db.QueryRow(query))
}

func (s *Store) scanLocation(row *sql.Row) (*engine.Location, error) {
	var l engine.Location
	var defaultInt int

	err := row.Scan(&l.ID, &l.Name, &l.Coordinates.Latitude, &l.Coordinates.Longitude,
		&l.Timezone, &l.ElevationM, &defaultInt)
	if err != nil {
		return nil, err
	}
	l.IsDefault = defaultInt == 1
	return &l, nil
}

// SaveActivity saves or updates an activity
func (s *Store) SaveActivity(a *engine.Activity) error {
	requirementsJSON, _ := json.Marshal(a.Requirements)
	keywordsJSON, _ := json.Marshal(a.Keywords)

	query := `INSERT OR REPLACE INTO activities
		(id, name, description, category, requirements, icon, keywords, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, a.ID, a.Name, a.Description, string(a.Category),
		string(requirementsJSON), a.Icon, string(keywordsJSON), boolToInt(a.Enabled), time.Now())
	return err
}

// GetActivity retrieves a single activity by ID
func (s *Store) GetActivity(id string) (*engine.Activity, error) {
	query := `SELECT id, name, description, category, requirements, icon, keywords, enabled
		FROM activities WHERE id = ?`

	var a engine.Activity
	var category, requirementsJSON, keywordsJSON string
	var enabledInt int

	err := s.db.QueryRow(query, id).Scan(&a.ID, &a.Name, &a.Description, &category,
		&requirementsJSON, &a.Icon, &keywordsJSON, &enabledInt)
	if err != nil {
		return nil, err
	}

	a.Category = engine.ActivityCategory(category)
	json.Unmarshal([]byte(requirementsJSON), &a.Requirements)
	json.Unmarshal([]byte(keywordsJSON), &a.Keywords)
	a.Enabled = enabledInt == 1
	return &a, nil
}

// GetActivities retrieves all activities
func (s *Store) GetActivities() ([]*engine.Activity, error) {
	query := `SELECT id, name, description, category, requirements, icon, keywords, enabled
		FROM activities ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []*engine.Activity{}
	for rows.Next() {
		var a engine.Activity
		var category, requirementsJSON, keywordsJSON string
		var enabledInt int

		err := rows.Scan(&a.ID, &a.Name, &a.Description, &category,
			&requirementsJSON, &a.Icon, &keywordsJSON, &enabledInt)
		if err != nil {
			continue
		}

		a.Category = engine.ActivityCategory(category)
		json.Unmarshal([]byte(requirementsJSON), &a.Requirements)
		json.Unmarshal([]byte(keywordsJSON), &a.Keywords)
		a.Enabled = enabledInt == 1

		activities = append(activities, &a)
	}

	return activities, nil
}

// DeleteActivity deletes an activity by ID
func (s *Store) DeleteActivity(id string) error {
	_, err := s.db.Exec(`DELETE FROM activities WHERE id = ?`, id)
	return err
}

// CacheForecast stores a fetched forecast keyed by location and fetch date
func (s *Store) CacheForecast(loc engine.Coordinates, date time.Time, fc *engine.Forecast) error {
	forecastJSON, _ := json.Marshal(fc)
	dateStr := date.Format("2006-01-02")

	query := `INSERT OR REPLACE INTO forecast_cache (latitude, longitude, date, forecast, fetched_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, loc.Latitude, loc.Longitude, dateStr, string(forecastJSON), time.Now())
	return err
}

// GetCachedForecast retrieves a cached forecast and its fetch time
func (s *Store) GetCachedForecast(loc engine.Coordinates, date time.Time) (*engine.Forecast, time.Time, error) {
	dateStr := date.Format("2006-01-02")
	query := `SELECT forecast, fetched_at FROM forecast_cache
		WHERE latitude = ? AND longitude = ? AND date = ?`

	var forecastJSON string
	var fetchedAt time.Time
	err := s.db.QueryRow(query, loc.Latitude, loc.Longitude, dateStr).Scan(&forecastJSON, &fetchedAt)
	if err != nil {
		return nil, time.Time{}, err
	}

	var fc engine.Forecast
	if err := json.Unmarshal([]byte(forecastJSON), &fc); err != nil {
		return nil, time.Time{}, err
	}

	return &fc, fetchedAt, nil
}

// LogDecision appends a decision to the decision log
func (s *Store) LogDecision(id string, d *engine.Decision, activityID string) error {
	detailJSON, _ := json.Marshal(d)

	query := `INSERT INTO decisions (id, activity_id, for_time, verdict, score, detail)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query, id, activityID, d.Time, string(d.Verdict), d.Score, string(detailJSON))
	return err
}

// RecentDecisions retrieves the latest logged decisions for an activity
func (s *Store) RecentDecisions(activityID string, limit int) ([]*engine.Decision, error) {
	query := `SELECT detail FROM decisions WHERE activity_id = ?
		ORDER BY decided_at DESC LIMIT ?`

	rows, err := s.db.Query(query, activityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	decisions := []*engine.Decision{}
	for rows.Next() {
		var detailJSON string
		if err := rows.Scan(&detailJSON); err != nil {
			continue
		}
		var d engine.Decision
		if err := json.Unmarshal([]byte(detailJSON), &d); err != nil {
			continue
		}
		decisions = append(decisions, &d)
	}

	return decisions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
