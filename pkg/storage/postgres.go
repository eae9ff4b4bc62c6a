package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/workload-drift-engine/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// migrate runs database migrations
func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveAlert persists one drift alert
func (s *PostgresStore) SaveAlert(ctx context.Context, alert *models.DriftAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.DetectedAt.IsZero() {
		alert.DetectedAt = time.Now()
	}

	query := `
		INSERT INTO drift_alerts (
			id, service, metric, expected_value, observed_value,
			deviation_pct, message, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		alert.ID, alert.Service, alert.Metric,
		alert.ExpectedValue, alert.ObservedValue,
		alert.DeviationPct, alert.Message, alert.DetectedAt,
	)
	return err
}

// ListAlerts returns stored alerts newest first, optionally filtered by service
func (s *PostgresStore) ListAlerts(ctx context.Context, service string, limit int) ([]*models.DriftAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, service, metric, expected_value, observed_value,
			deviation_pct, message, detected_at
		FROM drift_alerts
	`
	args := []interface{}{}
	if service != "" {
		query += " WHERE service = $1"
		args = append(args, service)
	}
	query += fmt.Sprintf(" ORDER BY detected_at DESC LIMIT %d", limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.DriftAlert
	for rows.Next() {
		var a models.DriftAlert
		if err := rows.Scan(
			&a.ID, &a.Service, &a.Metric,
			&a.ExpectedValue, &a.ObservedValue,
			&a.DeviationPct, &a.Message, &a.DetectedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, rows.Err()
}

// LogScan records a completed scan
func (s *PostgresStore) LogScan(ctx context.Context, entry *ScanEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	query := `
		INSERT INTO scan_log (id, namespace, sample_count, alert_count, started_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Namespace, entry.SampleCount, entry.AlertCount,
		entry.StartedAt, entry.Duration.Milliseconds(),
	)
	return err
}

// GetScanHistory returns recent scans newest first
func (s *PostgresStore) GetScanHistory(ctx context.Context, limit int) ([]*ScanEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, namespace, sample_count, alert_count, started_at, duration_ms
		FROM scan_log
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ScanEntry
	for rows.Next() {
		var e ScanEntry
		var durationMs int64
		if err := rows.Scan(&e.ID, &e.Namespace, &e.SampleCount, &e.AlertCount, &e.StartedAt, &durationMs); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
