// Package cookies centralizes the session cookie contract so every handler
// that touches tokens sets and clears them identically.
package cookies

import (
	"net/http"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenCookie is the cookie name carrying the access token.
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie is the cookie name carrying the refresh token.
	RefreshTokenCookie = "refreshToken"
)

// Manager stamps the environment-dependent cookie attributes. Outside
// production cookies stay usable over plain HTTP with SameSite=Lax; in
// production they are Secure and SameSite=Strict.
type Manager struct {
	production bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a cookie manager from the loaded configuration.
func NewManager(cfg *config.Config) (*Manager, error) {
	accessTTL, err := config.ParseTTL(cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := config.ParseTTL(cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &Manager{
		production: cfg.IsProduction(),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// SetSessionCookies writes both token cookies with lifetimes matching the
// corresponding token TTLs.
func (m *Manager) SetSessionCookies(c echo.Context, tokens *entity.TokenPair) {
	c.SetCookie(m.build(AccessTokenCookie, tokens.AccessToken, m.accessTTL))
	c.SetCookie(m.build(RefreshTokenCookie, tokens.RefreshToken, m.refreshTTL))
}

// ClearSessionCookies expires both token cookies immediately.
func (m *Manager) ClearSessionCookies(c echo.Context) {
	c.SetCookie(m.expired(AccessTokenCookie))
	c.SetCookie(m.expired(RefreshTokenCookie))
}

// ReadRefreshToken returns the refresh token cookie value, or empty when the
// cookie is absent.
func ReadRefreshToken(c echo.Context) string {
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil || cookie == nil {
		return ""
	}

	return cookie.Value
}

func (m *Manager) build(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.production,
		SameSite: m.sameSite(),
	}
}

func (m *Manager) expired(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.production,
		SameSite: m.sameSite(),
	}
}

func (m *Manager) sameSite() http.SameSite {
	if m.production {
		return http.SameSiteStrictMode
	}

	return http.SameSiteLaxMode
}
