package postgres

import (
	"context"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// refreshSessionRepository implements the domain's RefreshSessionRepository using GORM.
type refreshSessionRepository struct {
	db *gorm.DB
}

// NewRefreshSessionRepository is the constructor for refreshSessionRepository.
func NewRefreshSessionRepository(db *gorm.DB) repository.RefreshSessionRepository {
	return &refreshSessionRepository{db: db}
}

// Create persists a new refresh session.
func (repo *refreshSessionRepository) Create(ctx context.Context, session *entity.RefreshSession) error {
	sessionM := fromRefreshSessionDomain(session)

	if err := repo.db.WithContext(ctx).Create(sessionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("refresh session already exists")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrValidation.WrapMessage("invalid subject reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh session")
	}

	session.ID = sessionM.ID
	session.CreatedAt = sessionM.CreatedAt

	return nil
}

// FindByTokenHash retrieves a live session by its stored hash. Sessions
// past their expiry behave as if absent.
func (repo *refreshSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshSession, error) {
	var sessionM model.RefreshSessionModel
	err := repo.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&sessionM).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to find refresh session by hash")
	}

	session := toRefreshSessionDomain(&sessionM)
	if session.Expired(time.Now()) {
		return nil, repository.ErrRefreshSessionNotFound
	}

	return session, nil
}

// DeleteByTokenHash removes the session matching the hash.
func (repo *refreshSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	err := repo.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&model.RefreshSessionModel{}).Error

	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete refresh session")
	}

	return nil
}

// DeleteBySubjectID removes every session for an identity.
func (repo *refreshSessionRepository) DeleteBySubjectID(ctx context.Context, subjectID uuid.UUID) error {
	err := repo.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Delete(&model.RefreshSessionModel{}).Error

	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete refresh sessions for subject")
	}

	return nil
}

// DeleteExpired removes all expired sessions.
func (repo *refreshSessionRepository) DeleteExpired(ctx context.Context) error {
	err := repo.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.RefreshSessionModel{}).Error

	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete expired refresh sessions")
	}

	return nil
}

func toRefreshSessionDomain(m *model.RefreshSessionModel) *entity.RefreshSession {
	return &entity.RefreshSession{
		ID:        m.ID,
		SubjectID: m.SubjectID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

func fromRefreshSessionDomain(e *entity.RefreshSession) *model.RefreshSessionModel {
	return &model.RefreshSessionModel{
		ID:        e.ID,
		SubjectID: e.SubjectID,
		TokenHash: e.TokenHash,
		ExpiresAt: e.ExpiresAt,
		CreatedAt: e.CreatedAt,
	}
}
