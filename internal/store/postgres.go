package store

import (
	"context"
	"fmt"

	"github.com/C-Tharun/vitalsync/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the server-grade backend, for deployments where several
// sync daemons share one sample table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a connection pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the record at its key.
func (p *Postgres) Upsert(ctx context.Context, rec models.SampleRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO health_samples
		 (user_id, ts, heart_rate_bpm, steps, calories, distance_km,
		  sleep_minutes, activity_label, heart_points, weight_kg,
		  floors_climbed, move_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (user_id, ts) DO UPDATE SET
		   heart_rate_bpm = EXCLUDED.heart_rate_bpm,
		   steps          = EXCLUDED.steps,
		   calories       = EXCLUDED.calories,
		   distance_km    = EXCLUDED.distance_km,
		   sleep_minutes  = EXCLUDED.sleep_minutes,
		   activity_label = EXCLUDED.activity_label,
		   heart_points   = EXCLUDED.heart_points,
		   weight_kg      = EXCLUDED.weight_kg,
		   floors_climbed = EXCLUDED.floors_climbed,
		   move_minutes   = EXCLUDED.move_minutes`,
		rec.UserID, rec.Timestamp, rec.HeartRateBPM, rec.Steps, rec.Calories,
		rec.DistanceKm, rec.SleepMinutes, rec.ActivityLabel, rec.HeartPoints,
		rec.WeightKg, rec.FloorsClimbed, rec.MoveMinutes)
	if err != nil {
		return fmt.Errorf("upserting sample: %w", err)
	}
	return nil
}

// GetByTimestamp returns the record at the exact key, or nil.
func (p *Postgres) GetByTimestamp(ctx context.Context, userID string, ts int64) (*models.SampleRecord, error) {
	rows, err := p.pool.Query(ctx,
		sampleSelect+` WHERE user_id = $1 AND ts = $2`, userID, ts)
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
func (p *Postgres) GetRange(ctx context.Context, userID string, start, end int64) ([]models.SampleRecord, error) {
	rows, err := p.pool.Query(ctx,
		sampleSelect+` WHERE user_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sample range: %w", err)
	}
	defer rows.Close()

	return scanSampleRows(rows)
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
