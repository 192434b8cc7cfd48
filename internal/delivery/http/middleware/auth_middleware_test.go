package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/cookies"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) service.TokenCodec {
	t.Helper()

	cfg := &config.Config{SecretKey: "test-secret-key-for-middleware"}
	cfg.Auth = &config.AuthConfig{
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "7d",
	}

	codec, err := auth.NewJWTCodec(cfg)
	require.NoError(t, err)

	return codec
}

func newTestAuthMiddleware(t *testing.T) (*AuthMiddleware, service.TokenCodec) {
	t.Helper()

	codec := newTestCodec(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewAuthMiddleware(codec, logger), codec
}

func testIdentity(role entity.Role) *entity.Identity {
	return &entity.Identity{
		ID:     uuid.New(),
		Email:  "user@example.com",
		Role:   role,
		Active: true,
	}
}

// invoke runs the middleware chain against a fresh request and reports the
// principal the next handler observed.
func invoke(t *testing.T, mw echo.MiddlewareFunc, decorate func(*http.Request)) (*deliverycontext.Principal, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *deliverycontext.Principal
	next := func(c echo.Context) error {
		seen = deliverycontext.GetPrincipal(c.Request().Context())

		return nil
	}

	err := mw(next)(c)

	return seen, err
}

func TestAuthMiddleware_MissingTokenRequired(t *testing.T) {
	m, _ := newTestAuthMiddleware(t)

	_, err := invoke(t, m.Verify(Options{RequireAuth: true}), nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthentication)
}

func TestAuthMiddleware_MissingTokenOptional(t *testing.T) {
	m, _ := newTestAuthMiddleware(t)

	principal, err := invoke(t, m.Verify(Options{RequireAuth: false}), nil)

	require.NoError(t, err)
	assert.Nil(t, principal, "unauthenticated request must carry no principal")
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	m, codec := newTestAuthMiddleware(t)
	identity := testIdentity(entity.RoleUser)

	token, err := codec.Issue(identity, entity.TokenClassAccess, codec.AccessTTL())
	require.NoError(t, err)

	principal, err := invoke(t, m.Verify(Options{RequireAuth: true}), func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, identity.ID, principal.SubjectID)
	assert.Equal(t, identity.Email, principal.Email)
	assert.Equal(t, entity.RoleUser, principal.Role)
	assert.Equal(t, entity.TokenClassAccess, principal.Class)
}

func TestAuthMiddleware_ValidCookieToken(t *testing.T) {
	m, codec := newTestAuthMiddleware(t)
	identity := testIdentity(entity.RoleUser)

	token, err := codec.Issue(identity, entity.TokenClassAccess, codec.AccessTTL())
	require.NoError(t, err)

	principal, err := invoke(t, m.Verify(Options{RequireAuth: true}), func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: cookies.AccessTokenCookie, Value: token})
	})

	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, identity.ID, principal.SubjectID)
}

func TestAuthMiddleware_RefreshTokenRejectedOnAccessRoute(t *testing.T) {
	m, codec := newTestAuthMiddleware(t)
	identity := testIdentity(entity.RoleUser)

	token, err := codec.Issue(identity, entity.TokenClassRefresh, codec.RefreshTTL())
	require.NoError(t, err)

	_, err = invoke(t, m.Verify(Options{RequireAuth: true}), func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthentication)
}

func TestAuthMiddleware_GarbageTokenRejected(t *testing.T) {
	m, _ := newTestAuthMiddleware(t)

	_, err := invoke(t, m.Verify(Options{RequireAuth: true}), func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.token")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthentication)
}

func TestAuthMiddleware_InvalidTokenRejectedEvenWhenOptional(t *testing.T) {
	m, _ := newTestAuthMiddleware(t)

	_, err := invoke(t, m.Verify(Options{RequireAuth: false}), func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.token")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthentication)
}

func TestAuthMiddleware_RoleAllowList(t *testing.T) {
	m, codec := newTestAuthMiddleware(t)

	adminToken, err := codec.Issue(testIdentity(entity.RoleAdmin), entity.TokenClassAccess, codec.AccessTTL())
	require.NoError(t, err)
	userToken, err := codec.Issue(testIdentity(entity.RoleUser), entity.TokenClassAccess, codec.AccessTTL())
	require.NoError(t, err)

	adminOnly := m.RequireRoles(entity.RoleAdmin)

	principal, err := invoke(t, adminOnly, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, principal.Role)

	_, err = invoke(t, adminOnly, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+userToken)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthorization)
}

func TestAuthMiddleware_MalformedAuthorizationHeader(t *testing.T) {
	m, _ := newTestAuthMiddleware(t)

	// A non-bearer scheme counts as no token at all.
	_, err := invoke(t, m.Verify(Options{RequireAuth: true}), func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrAuthentication)
}
