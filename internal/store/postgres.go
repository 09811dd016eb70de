package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optwhisper/game-engine/internal/model"
)

// PostgresStore implements Store for multi-instance deployments: any
// server can pick up a dispatch for any live session. Game state is one
// JSONB document per session; the schema is just
//
//	CREATE TABLE sessions (
//	    id         TEXT PRIMARY KEY,
//	    state      JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
// Rows are removed on session end and by the idle sweeper, so nothing
// outlives its session.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateSession(ctx context.Context, sess *model.Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO sessions (id, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		sess.ID, stateJSON, sess.CreatedAt, sess.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	var stateJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, state, created_at, updated_at FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &stateJSON, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	if err := json.Unmarshal(stateJSON, &sess.State); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, sess *model.Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET state = $2, updated_at = $3 WHERE id = $1`,
		sess.ID, stateJSON, sess.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
