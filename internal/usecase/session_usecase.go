// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new identity.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthenticateInput defines the credentials presented on login.
type AuthenticateInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries the refresh token presented to mint a new pair.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutInput carries the refresh token whose session should end.
type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
}

// --- Output DTOs ---

// RegisterOutput returns the newly created identity, credential material stripped.
type RegisterOutput struct {
	Identity *entity.Identity
}

// AuthenticateOutput returns the token pair issued on successful login.
type AuthenticateOutput struct {
	Identity *entity.Identity
	Tokens   *entity.TokenPair
}

// RefreshOutput returns the rotated token pair.
type RefreshOutput struct {
	Tokens *entity.TokenPair
}

// SessionUsecase covers the identity transitions: registration,
// authentication, refresh rotation, and logout, plus the identity lookup
// protected routes need. This is the contract the delivery layer depends on.
type SessionUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Authenticate(ctx context.Context, input *AuthenticateInput) (*AuthenticateOutput, error)
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)
	Logout(ctx context.Context, input *LogoutInput) error
	LogoutAll(ctx context.Context, subjectID uuid.UUID) error
	GetIdentity(ctx context.Context, id uuid.UUID) (*entity.Identity, error)
}
