// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrIdentityNotFound is a domain-specific error returned when an identity is not found.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository is the credential store contract. Email lookups are
// case-sensitive exact matches; uniqueness is upheld by the store's
// constraint, which is the only guard against concurrent registrations
// racing past the existence check.
type IdentityRepository interface {
	// FindByID retrieves a single identity by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// FindByEmail retrieves a single identity by its email address.
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// Exists reports whether an identity with the given email exists.
	Exists(ctx context.Context, email string) (bool, error)

	// Create persists a new identity to the store.
	Create(ctx context.Context, identity *entity.Identity) error

	// Update modifies an existing identity in the store.
	Update(ctx context.Context, identity *entity.Identity) error
}
