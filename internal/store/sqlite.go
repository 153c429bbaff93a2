package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/C-Tharun/vitalsync/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is the embedded durable store, one row per (user, timestamp).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the sample database at dir/samples.db.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "samples.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sample db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS health_samples (
		user_id        TEXT NOT NULL,
		ts             INTEGER NOT NULL,
		heart_rate_bpm REAL,
		steps          INTEGER,
		calories       REAL,
		distance_km    REAL,
		sleep_minutes  INTEGER,
		activity_label TEXT,
		heart_points   INTEGER,
		weight_kg      REAL,
		floors_climbed REAL,
		move_minutes   INTEGER,
		PRIMARY KEY (user_id, ts)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating samples table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Upsert inserts or replaces the record at its key.
func (s *SQLite) Upsert(ctx context.Context, rec models.SampleRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO health_samples
		 (user_id, ts, heart_rate_bpm, steps, calories, distance_km,
		  sleep_minutes, activity_label, heart_points, weight_kg,
		  floors_climbed, move_minutes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UserID, rec.Timestamp, rec.HeartRateBPM, rec.Steps, rec.Calories,
		rec.DistanceKm, rec.SleepMinutes, rec.ActivityLabel, rec.HeartPoints,
		rec.WeightKg, rec.FloorsClimbed, rec.MoveMinutes)
	if err != nil {
		return fmt.Errorf("upserting sample: %w", err)
	}
	return nil
}

// GetByTimestamp returns the record at the exact key, or nil.
func (s *SQLite) GetByTimestamp(ctx context.Context, userID string, ts int64) (*models.SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		sampleSelect+` WHERE user_id = ? AND ts = ?`, userID, ts)
	if err != nil {
		return nil, fmt.Errorf("querying sample: %w", err)
	}
	defer rows.Close()

	recs, err := scanSampleRows(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// GetRange returns records in [start, end), ascending by timestamp.
func (s *SQLite) GetRange(ctx context.Context, userID string, start, end int64) ([]models.SampleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		sampleSelect+` WHERE user_id = ? AND ts >= ? AND ts < ? ORDER BY ts ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sample range: %w", err)
	}
	defer rows.Close()

	return scanSampleRows(rows)
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const sampleSelect = `SELECT user_id, ts, heart_rate_bpm, steps, calories,
	distance_km, sleep_minutes, activity_label, heart_points, weight_kg,
	floors_climbed, move_minutes FROM health_samples`

// sqlRows is the shared subset of database/sql and pgx row iteration used by
// the scanners.
type sqlRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSampleRows(rows sqlRows) ([]models.SampleRecord, error) {
	var out []models.SampleRecord
	for rows.Next() {
		var (
			rec           models.SampleRecord
			heartRate     sql.NullFloat64
			steps         sql.NullInt64
			calories      sql.NullFloat64
			distance      sql.NullFloat64
			sleepMinutes  sql.NullInt64
			activityLabel sql.NullString
			heartPoints   sql.NullInt64
			weight        sql.NullFloat64
			floors        sql.NullFloat64
			moveMinutes   sql.NullInt64
		)
		if err := rows.Scan(&rec.UserID, &rec.Timestamp, &heartRate, &steps,
			&calories, &distance, &sleepMinutes, &activityLabel, &heartPoints,
			&weight, &floors, &moveMinutes); err != nil {
			return nil, fmt.Errorf("scanning sample row: %w", err)
		}

		if heartRate.Valid {
			rec.HeartRateBPM = &heartRate.Float64
		}
		if steps.Valid {
			v := int(steps.Int64)
			rec.Steps = &v
		}
		if calories.Valid {
			rec.Calories = &calories.Float64
		}
		if distance.Valid {
			rec.DistanceKm = &distance.Float64
		}
		if sleepMinutes.Valid {
			rec.SleepMinutes = &sleepMinutes.Int64
		}
		if activityLabel.Valid {
			rec.ActivityLabel = &activityLabel.String
		}
		if heartPoints.Valid {
			v := int(heartPoints.Int64)
			rec.HeartPoints = &v
		}
		if weight.Valid {
			rec.WeightKg = &weight.Float64
		}
		if floors.Valid {
			rec.FloorsClimbed = &floors.Float64
		}
		if moveMinutes.Valid {
			v := int(moveMinutes.Int64)
			rec.MoveMinutes = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
