// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	txManager repository.TransactionManager
	codec     service.TokenCodec
	hasher    service.PasswordHasher
	logger    *slog.Logger
	now       func() time.Time
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Codec     service.TokenCodec
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewSessionService is the constructor for sessionService. It receives all dependencies as interfaces.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		txManager: params.TxManager,
		codec:     params.Codec,
		hasher:    params.Hasher,
		logger:    params.Logger,
		now:       time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a new identity with the default role. The existence check
// and the insert share one transaction; the store's unique constraint is the
// final word when two registrations race.
func (srv *sessionService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	srv.log(ctx).Info("Starting registration", slog.String("email", input.Email))

	// bcrypt is CPU-bound, hash before entering the transaction.
	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	newIdentity := &entity.Identity{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         entity.RoleUser,
		Active:       true,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()

		exists, err := identityRepo.Exists(ctx, input.Email)
		if err != nil {
			return errors.Wrap(err, "failed to check identity existence")
		}
		if exists {
			return errors.Wrap(domainerrors.ErrIdentityAlreadyExists, "email already registered")
		}

		if err := identityRepo.Create(ctx, newIdentity); err != nil {
			return errors.Wrap(err, "failed to create identity during registration")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("identityID", newIdentity.ID))

	return &usecase.RegisterOutput{Identity: newIdentity.Sanitized()}, nil
}

// Authenticate verifies credentials and issues a fresh token pair. Every
// rejection path returns the same invalid-credentials error so callers cannot
// probe which emails are registered.
func (srv *sessionService) Authenticate(ctx context.Context, input *usecase.AuthenticateInput) (*usecase.AuthenticateOutput, error) {
	srv.log(ctx).Debug("Starting authentication", slog.String("email", input.Email))

	identity, err := srv.loadIdentityByEmail(ctx, input.Email)
	if err != nil {
		srv.log(ctx).Warn("Authentication failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(err, "authentication failed")
	}

	// Check password outside the transaction (bcrypt is CPU-bound).
	if !srv.hasher.Check(input.Password, identity.PasswordHash) {
		srv.log(ctx).Warn("Authentication failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrInvalidCredentials))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "authentication failed")
	}

	if !identity.Active {
		srv.log(ctx).Warn("Authentication rejected for inactive identity", slog.Any("identityID", identity.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "authentication failed")
	}

	tokens, err := srv.codec.IssuePair(identity)
	if err != nil {
		srv.log(ctx).Error("Failed to issue token pair", slog.Any("identityID", identity.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue token pair")
	}

	if err := srv.storeRefreshSession(ctx, identity.ID, tokens.RefreshToken); err != nil {
		srv.log(ctx).Error("Failed to persist refresh session", slog.Any("identityID", identity.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to persist refresh session")
	}

	srv.log(ctx).Debug("Authentication succeeded", slog.Any("identityID", identity.ID))

	return &usecase.AuthenticateOutput{
		Identity: identity.Sanitized(),
		Tokens:   tokens,
	}, nil
}

// Refresh rotates a verified refresh token: the presented session record is
// deleted and a new pair with a new session is issued in the same
// transaction, so a replayed token finds nothing to redeem.
func (srv *sessionService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*usecase.RefreshOutput, error) {
	srv.log(ctx).Debug("Attempting token refresh")

	claims, err := srv.codec.VerifyClass(input.RefreshToken, entity.TokenClassRefresh)
	if err != nil {
		srv.log(ctx).Warn("Refresh token verification failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrAuthentication, "invalid refresh token")
	}

	tokenHash := srv.codec.HashToken(input.RefreshToken)

	var tokens *entity.TokenPair

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.IdentityRepo()
		sessionRepo := repoFactory.RefreshSessionRepo()

		// 1. The token must still back a live session; logout or an
		// earlier rotation removes the record.
		session, err := sessionRepo.FindByTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshSessionNotFound) {
				return errors.Wrap(domainerrors.ErrAuthentication, "refresh session not found or expired")
			}

			return errors.Wrap(err, "failed to find refresh session")
		}

		// 2. The subject must still exist and be active.
		identity, err := identityRepo.FindByID(ctx, claims.SubjectID)
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "identity no longer exists")
			}

			return errors.Wrap(err, "failed to find identity for refresh")
		}
		if !identity.Active {
			return errors.Wrap(domainerrors.ErrAuthentication, "identity is inactive")
		}

		// 3. Rotate: retire the presented session, then issue and store
		// a replacement pair.
		if err := sessionRepo.DeleteByTokenHash(ctx, session.TokenHash); err != nil {
			return errors.Wrap(err, "failed to retire refresh session")
		}

		tokens, err = srv.codec.IssuePair(identity)
		if err != nil {
			return errors.Wrap(err, "failed to issue rotated token pair")
		}

		newSession := &entity.RefreshSession{
			ID:        uuid.New(),
			SubjectID: identity.ID,
			TokenHash: srv.codec.HashToken(tokens.RefreshToken),
			ExpiresAt: srv.now().Add(srv.codec.RefreshTTL()),
		}
		if err := sessionRepo.Create(ctx, newSession); err != nil {
			return errors.Wrap(err, "failed to store rotated refresh session")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("identityID", claims.SubjectID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute refresh transaction")
	}

	srv.log(ctx).Debug("Token refresh succeeded", slog.Any("identityID", claims.SubjectID))

	return &usecase.RefreshOutput{Tokens: tokens}, nil
}

// Logout ends the session backing the presented refresh token. Logging out
// with an unknown or already-ended session is not an error.
func (srv *sessionService) Logout(ctx context.Context, input *usecase.LogoutInput) error {
	if input.RefreshToken == "" {
		return nil
	}

	tokenHash := srv.codec.HashToken(input.RefreshToken)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RefreshSessionRepo().DeleteByTokenHash(ctx, tokenHash); err != nil {
			if errors.Is(err, repository.ErrRefreshSessionNotFound) {
				return nil
			}

			return errors.Wrap(err, "failed to delete refresh session")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Logout failed", slog.Any("error", err))

		return errors.Wrap(err, "failed to execute logout transaction")
	}

	srv.log(ctx).Debug("Logout completed")

	return nil
}

// LogoutAll ends every session belonging to the subject, so a stolen device
// or leaked refresh token can be cut off from a single authenticated call.
func (srv *sessionService) LogoutAll(ctx context.Context, subjectID uuid.UUID) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RefreshSessionRepo().DeleteBySubjectID(ctx, subjectID); err != nil {
			return errors.Wrap(err, "failed to delete refresh sessions for subject")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Error("Logout-all failed", slog.Any("identityID", subjectID), slog.Any("error", err))

		return errors.Wrap(err, "failed to execute logout-all transaction")
	}

	srv.log(ctx).Debug("Logout-all completed", slog.Any("identityID", subjectID))

	return nil
}

// GetIdentity retrieves a single identity by ID, credential material stripped.
func (srv *sessionService) GetIdentity(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	var identity *entity.Identity

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		identity, findErr = repoFactory.IdentityRepo().FindByID(ctx, id)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrIdentityNotFound, "identity not found")
			}

			return errors.Wrap(findErr, "failed to find identity by id")
		}

		return nil
	})

	if err != nil {
		srv.log(ctx).Warn("Identity lookup failed", slog.Any("identityID", id), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute identity lookup transaction")
	}

	return identity.Sanitized(), nil
}

// loadIdentityByEmail reads the identity from the primary in a short
// transaction to avoid stale reads on replicas. An unknown email surfaces as
// invalid credentials, never as not-found.
func (srv *sessionService) loadIdentityByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var identity *entity.Identity

	if err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var findErr error
		identity, findErr = repoFactory.IdentityRepo().FindByEmail(ctx, email)
		if findErr != nil {
			if errors.Is(findErr, repository.ErrIdentityNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidCredentials, "unknown email")
			}

			return errors.Wrap(findErr, "failed to find identity by email")
		}

		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "failed to execute credential lookup transaction")
	}

	return identity, nil
}

func (srv *sessionService) storeRefreshSession(ctx context.Context, subjectID uuid.UUID, refreshToken string) error {
	session := &entity.RefreshSession{
		ID:        uuid.New(),
		SubjectID: subjectID,
		TokenHash: srv.codec.HashToken(refreshToken),
		ExpiresAt: srv.now().Add(srv.codec.RefreshTTL()),
	}

	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RefreshSessionRepo().Create(ctx, session); err != nil {
			return errors.Wrap(err, "failed to create refresh session")
		}

		return nil
	})
}
