// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"errors"
	"time"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// Verification failure modes of the token codec. Callers that face the
// network must normalize all of these to a generic authentication error;
// the distinctions exist for internal decisions and tests only.
var (
	// ErrMalformedToken is returned when the token structure cannot be parsed.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned when the signature does not match.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when the verifier's clock is past the token expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenClass is returned when a token of one class is presented
	// where the other class is required.
	ErrWrongTokenClass = errors.New("wrong token class")
)

// Claims is the verified payload of a token.
type Claims struct {
	SubjectID uuid.UUID
	Email     string
	Role      entity.Role
	Class     entity.TokenClass
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec creates and verifies signed, tamper-evident tokens without any
// persisted session state.
type TokenCodec interface {
	// Issue produces a signed token of the given class for the identity.
	Issue(identity *entity.Identity, class entity.TokenClass, ttl time.Duration) (string, error)

	// IssuePair issues a fresh access/refresh token pair with the
	// configured lifetimes.
	IssuePair(identity *entity.Identity) (*entity.TokenPair, error)

	// Verify checks signature and expiry and returns the decoded claims.
	Verify(token string) (*Claims, error)

	// VerifyClass calls Verify, then fails with ErrWrongTokenClass when the
	// token's class does not match the expected one.
	VerifyClass(token string, expected entity.TokenClass) (*Claims, error)

	// HashToken returns a deterministic one-way hash of a raw token,
	// suitable as a storage key for refresh sessions.
	HashToken(token string) string

	// AccessTTL returns the configured access token lifetime.
	AccessTTL() time.Duration

	// RefreshTTL returns the configured refresh token lifetime.
	RefreshTTL() time.Duration
}
