package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// stubTxManager runs the transactional function directly against a fixed
// factory, so tests exercise the real service logic without a database.
type stubTxManager struct {
	factory repository.RepositoryFactory
}

func (m *stubTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

type stubRepoFactory struct {
	identityRepo repository.IdentityRepository
	sessionRepo  repository.RefreshSessionRepository
}

func (f *stubRepoFactory) IdentityRepo() repository.IdentityRepository {
	return f.identityRepo
}

func (f *stubRepoFactory) RefreshSessionRepo() repository.RefreshSessionRepository {
	return f.sessionRepo
}

type mockIdentityRepository struct {
	mock.Mock
}

func (m *mockIdentityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockIdentityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.Identity), args.Error(1)
}

func (m *mockIdentityRepository) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Error(1)
}

func (m *mockIdentityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	args := m.Called(ctx, identity)

	return args.Error(0)
}

func (m *mockIdentityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	args := m.Called(ctx, identity)

	return args.Error(0)
}

type mockRefreshSessionRepository struct {
	mock.Mock
}

func (m *mockRefreshSessionRepository) Create(ctx context.Context, session *entity.RefreshSession) error {
	args := m.Called(ctx, session)

	return args.Error(0)
}

func (m *mockRefreshSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*entity.RefreshSession, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.RefreshSession), args.Error(1)
}

func (m *mockRefreshSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)

	return args.Error(0)
}

func (m *mockRefreshSessionRepository) DeleteBySubjectID(ctx context.Context, subjectID uuid.UUID) error {
	args := m.Called(ctx, subjectID)

	return args.Error(0)
}

func (m *mockRefreshSessionRepository) DeleteExpired(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

type mockTokenCodec struct {
	mock.Mock
}

func (m *mockTokenCodec) Issue(identity *entity.Identity, class entity.TokenClass, ttl time.Duration) (string, error) {
	args := m.Called(identity, class, ttl)

	return args.String(0), args.Error(1)
}

func (m *mockTokenCodec) IssuePair(identity *entity.Identity) (*entity.TokenPair, error) {
	args := m.Called(identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*entity.TokenPair), args.Error(1)
}

func (m *mockTokenCodec) Verify(token string) (*service.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *mockTokenCodec) VerifyClass(token string, expected entity.TokenClass) (*service.Claims, error) {
	args := m.Called(token, expected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *mockTokenCodec) HashToken(token string) string {
	args := m.Called(token)

	return args.String(0)
}

func (m *mockTokenCodec) AccessTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

func (m *mockTokenCodec) RefreshTTL() time.Duration {
	args := m.Called()

	return args.Get(0).(time.Duration)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)

	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Check(password, hash string) bool {
	args := m.Called(password, hash)

	return args.Bool(0)
}

// sessionServiceFixture bundles the service under test with its mocks.
type sessionServiceFixture struct {
	service     usecase.SessionUsecase
	identities  *mockIdentityRepository
	sessions    *mockRefreshSessionRepository
	codec       *mockTokenCodec
	hasher      *mockPasswordHasher
}

func newSessionServiceFixture(t *testing.T) *sessionServiceFixture {
	t.Helper()

	identities := &mockIdentityRepository{}
	sessions := &mockRefreshSessionRepository{}
	codec := &mockTokenCodec{}
	hasher := &mockPasswordHasher{}

	txManager := &stubTxManager{factory: &stubRepoFactory{
		identityRepo: identities,
		sessionRepo:  sessions,
	}}

	svc := NewSessionService(SessionServiceParams{
		TxManager: txManager,
		Codec:     codec,
		Hasher:    hasher,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	t.Cleanup(func() {
		identities.AssertExpectations(t)
		sessions.AssertExpectations(t)
		codec.AssertExpectations(t)
		hasher.AssertExpectations(t)
	})

	return &sessionServiceFixture{
		service:    svc,
		identities: identities,
		sessions:   sessions,
		codec:      codec,
		hasher:     hasher,
	}
}
