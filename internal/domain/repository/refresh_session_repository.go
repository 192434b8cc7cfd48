package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrRefreshSessionNotFound is returned when no session matches the lookup.
var ErrRefreshSessionNotFound = errors.New("refresh session not found")

// RefreshSessionRepository manages the persisted refresh-token sessions.
// A stored hash is what makes logout and refresh rotation revocation-capable;
// without it a leaked refresh token would stay valid until natural expiry.
type RefreshSessionRepository interface {
	// Create persists a new refresh session.
	Create(ctx context.Context, session *entity.RefreshSession) error

	// FindByTokenHash retrieves a session by its stored token hash.
	FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshSession, error)

	// DeleteByTokenHash removes the session matching the hash, ending it.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteBySubjectID removes every session for an identity, for
	// logout-everywhere semantics.
	DeleteBySubjectID(ctx context.Context, subjectID uuid.UUID) error

	// DeleteExpired removes all expired sessions. Called periodically for cleanup.
	DeleteExpired(ctx context.Context) error
}
