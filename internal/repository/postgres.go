package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portal/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresRepository persists navigation snapshots and the search log.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects to PostgreSQL.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// SaveSnapshot stores a submitted navigation snapshot under its id so a
// destination page or deep link can rehydrate from it later.
func (r *PostgresRepository) SaveSnapshot(ctx context.Context, id string, nav model.NavigationState) error {
	payload, err := json.Marshal(nav)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	query := `
		INSERT INTO search_snapshots (id, state, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state
	`
	if _, err := r.db.ExecContext(ctx, query, id, payload); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot loads a navigation snapshot by id. Returns nil, nil when the
// id is unknown.
func (r *PostgresRepository) GetSnapshot(ctx context.Context, id string) (*model.NavigationState, error) {
	var payload []byte
	query := `SELECT state FROM search_snapshots WHERE id = $1`
	err := r.db.GetContext(ctx, &payload, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	var nav model.NavigationState
	if err := json.Unmarshal(payload, &nav); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &nav, nil
}

// LogSearch records a suggestion/search round trip.
func (r *PostgresRepository) LogSearch(ctx context.Context, sessionID, query string, filters model.FilterState, resultCount, tookMs int) error {
	payload, err := json.Marshal(filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}
	logQuery := `
		INSERT INTO search_logs (session_id, query, filters, result_count, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, logQuery, sessionID, query, payload, resultCount, tookMs); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// DeleteSnapshotsBefore drops snapshots older than the cutoff and returns
// how many rows went away. Wired to the periodic cleanup schedule.
func (r *PostgresRepository) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM search_snapshots WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
