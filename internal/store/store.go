// Package store defines where active game sessions live while they are
// being played. The in-memory store is the default and the honest one:
// sessions are not persisted across sessions by design. The PostgreSQL and
// Redis implementations exist for multi-instance deployments and hold only
// live sessions - DeleteSession and the idle sweeper remove them, and no
// code path ever resumes a finished session.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/optwhisper/game-engine/internal/model"
)

// ErrNotFound is returned when a session id has no live session.
var ErrNotFound = errors.New("store: session not found")

// Store is the active-session storage interface.
type Store interface {
	// CreateSession stores a brand-new session.
	CreateSession(ctx context.Context, s *model.Session) error

	// GetSession retrieves a session by id; ErrNotFound when absent.
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// SaveSession overwrites a session's state after a dispatch.
	SaveSession(ctx context.Context, s *model.Session) error

	// DeleteSession discards a session. Deleting an absent session is not
	// an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteIdleBefore removes sessions not updated since cutoff and
	// returns how many were removed. Used by the idle sweeper.
	DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error)
}
