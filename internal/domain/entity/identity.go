// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the persisted principal record. It carries the credential
// material (hashed, never raw) and the role tag used for authorization.
// Email uniqueness is enforced by the credential store, not here.
type Identity struct {
	ID           uuid.UUID // The unique identifier for this principal, also the token subject.
	Email        string    // Login identifier, case-sensitive as stored.
	PasswordHash string    // bcrypt hash of the secret. Never serialized back to callers.
	Role         Role      // Role tag from the closed role enumeration.
	Active       bool      // Inactive identities cannot authenticate.
	CreatedAt    time.Time // Timestamp of when this identity was registered.
	UpdatedAt    time.Time // Timestamp of the last modification.
}

// Sanitized returns a copy of the identity with the credential material
// stripped, safe to hand to delivery layers.
func (i *Identity) Sanitized() *Identity {
	clone := *i
	clone.PasswordHash = ""

	return &clone
}

// RefreshSession represents a long-lived, authorized session backing a
// refresh token. Only a SHA-256 hash of the raw token is stored, so a
// database leak does not leak usable tokens.
type RefreshSession struct {
	ID        uuid.UUID // The unique ID for this session record.
	SubjectID uuid.UUID // The identity this session belongs to.
	TokenHash string    // SHA-256 hash of the raw refresh token.
	ExpiresAt time.Time // When this session stops being refreshable.
	CreatedAt time.Time // When the session was established.
}

// Expired reports whether the session is past its expiry at the given time.
func (s *RefreshSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
