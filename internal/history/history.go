// Package history persists recognition events to PostgreSQL for caregiver
// review. The store is optional: the kiosk runs fine without a database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/memory-mirror/internal/config"
	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

// Event is one persisted recognition.
type Event struct {
	ID         string    `json:"id"`
	PersonID   string    `json:"person_id"`
	Confidence float64   `json:"confidence"`
	Distance   float64   `json:"distance"`
	Known      bool      `json:"is_known"`
	Matcher    string    `json:"matcher"`
	FromCache  bool      `json:"from_cache"`
	Announced  bool      `json:"announced"`
	CreatedAt  time.Time `json:"created_at"`

	// Embedding of the recognized face, kept for offline analysis. Not
	// serialized to JSON.
	Embedding []float32 `json:"-"`
}

// Store writes recognition events to PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool and ensures the schema exists.
func NewStore(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS recognition_events (
			id UUID PRIMARY KEY,
			person_id TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			distance DOUBLE PRECISION NOT NULL,
			is_known BOOLEAN NOT NULL,
			matcher TEXT NOT NULL DEFAULT '',
			from_cache BOOLEAN NOT NULL DEFAULT FALSE,
			announced BOOLEAN NOT NULL DEFAULT FALSE,
			embedding vector,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create recognition_events table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS recognition_events_person_created
		ON recognition_events (person_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("create recognition_events index: %w", err)
	}
	return nil
}

// Record persists one recognition event and returns its id.
func (s *Store) Record(ctx context.Context, result recognize.Result, fromCache, announced bool, embedding []float32) (string, error) {
	id := uuid.NewString()

	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recognition_events
			(id, person_id, confidence, distance, is_known, matcher, from_cache, announced, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, result.PersonID, result.Confidence, result.Distance, result.Known,
		result.Matcher, fromCache, announced, vec, result.Timestamp)
	if err != nil {
		return "", fmt.Errorf("insert recognition event: %w", err)
	}
	return id, nil
}

// Recent returns the latest events, newest first. A non-empty personID
// filters to one person.
func (s *Store) Recent(ctx context.Context, personID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, person_id, confidence, distance, is_known, matcher, from_cache, announced, created_at
		FROM recognition_events
	`
	args := []any{}
	if personID != "" {
		query += " WHERE person_id = $1"
		args = append(args, personID)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recognition events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.PersonID, &e.Confidence, &e.Distance,
			&e.Known, &e.Matcher, &e.FromCache, &e.Announced, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recognition event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognition events: %w", err)
	}
	return events, nil
}

// PersonStats summarizes one person's recognition history.
type PersonStats struct {
	PersonID      string    `json:"person_id"`
	Events        int       `json:"events"`
	AvgConfidence float64   `json:"avg_confidence"`
	LastSeen      time.Time `json:"last_seen"`
}

// Stats returns per-person event counts over the last period.
func (s *Store) Stats(ctx context.Context, since time.Time) ([]PersonStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, COUNT(*), AVG(confidence), MAX(created_at)
		FROM recognition_events
		WHERE created_at >= $1
		GROUP BY person_id
		ORDER BY COUNT(*) DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query recognition stats: %w", err)
	}
	defer rows.Close()

	var stats []PersonStats
	for rows.Next() {
		var ps PersonStats
		if err := rows.Scan(&ps.PersonID, &ps.Events, &ps.AvgConfidence, &ps.LastSeen); err != nil {
			return nil, fmt.Errorf("scan recognition stats: %w", err)
		}
		stats = append(stats, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognition stats: %w", err)
	}
	return stats, nil
}

// SimilarEvents finds past events whose stored embedding is closest to the
// query embedding, using the pgvector cosine operator.
func (s *Store) SimilarEvents(ctx context.Context, embedding []float32, limit int) ([]Event, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding is required")
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, confidence, distance, is_known, matcher, from_cache, announced, created_at
		FROM recognition_events
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.PersonID, &e.Confidence, &e.Distance,
			&e.Known, &e.Matcher, &e.FromCache, &e.Announced, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan similar event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similar events: %w", err)
	}
	return events, nil
}
