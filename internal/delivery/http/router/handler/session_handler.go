// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/delivery/http/cookies"
	"gatekeeper/internal/delivery/http/response"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler holds dependencies for the session endpoints.
type SessionHandler struct {
	uc      usecase.SessionUsecase
	cookies *cookies.Manager
	logger  *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, cookieManager *cookies.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		uc:      uc,
		cookies: cookieManager,
		logger:  logger,
	}
}

// identityResponse is the wire form of an identity, credential material
// already stripped by the usecase layer.
type identityResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Role      entity.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"createdAt"`
}

func toIdentityResponse(identity *entity.Identity) *identityResponse {
	return &identityResponse{
		ID:        identity.ID,
		Email:     identity.Email,
		Role:      identity.Role,
		Active:    identity.Active,
		CreatedAt: identity.CreatedAt,
	}
}

// sessionResponse is the wire form of an issued token pair.
type sessionResponse struct {
	Identity     *identityResponse `json:"identity,omitempty"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

// Register handles the identity registration request.
func (h *SessionHandler) Register(c echo.Context) error {
	input := new(usecase.RegisterInput)
	if err := c.Bind(input); err != nil {
		return domainerrors.ErrValidation.WithDetails("invalid registration payload")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, toIdentityResponse(output.Identity))
}

// Login handles the credential authentication request. On success the token
// pair is returned in the body and mirrored into the session cookies.
func (h *SessionHandler) Login(c echo.Context) error {
	input := new(usecase.AuthenticateInput)
	if err := c.Bind(input); err != nil {
		return domainerrors.ErrValidation.WithDetails("invalid login payload")
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Authenticate(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.SetSessionCookies(c, output.Tokens)

	return response.OK(c, &sessionResponse{
		Identity:     toIdentityResponse(output.Identity),
		AccessToken:  output.Tokens.AccessToken,
		RefreshToken: output.Tokens.RefreshToken,
	})
}

// Refresh rotates the presented refresh token. The token can arrive in the
// body or in the refresh cookie; the body wins when both are present.
func (h *SessionHandler) Refresh(c echo.Context) error {
	input := new(usecase.RefreshInput)
	if err := c.Bind(input); err != nil {
		return domainerrors.ErrValidation.WithDetails("invalid refresh payload")
	}
	if input.RefreshToken == "" {
		input.RefreshToken = cookies.ReadRefreshToken(c)
	}
	if err := c.Validate(input); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Refresh(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	h.cookies.SetSessionCookies(c, output.Tokens)

	return response.OK(c, &sessionResponse{
		AccessToken:  output.Tokens.AccessToken,
		RefreshToken: output.Tokens.RefreshToken,
	})
}

// Logout ends the session backing the presented refresh token and clears
// the session cookies. Missing or stale tokens are not an error.
func (h *SessionHandler) Logout(c echo.Context) error {
	input := new(usecase.LogoutInput)
	if err := c.Bind(input); err != nil {
		input = &usecase.LogoutInput{}
	}
	if input.RefreshToken == "" {
		input.RefreshToken = cookies.ReadRefreshToken(c)
	}

	if err := h.uc.Logout(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	h.cookies.ClearSessionCookies(c)

	return response.OK(c, map[string]string{"message": "Successfully logged out"})
}

// LogoutAll ends every session of the authenticated caller, invalidating all
// refresh tokens issued to it, and clears the session cookies.
func (h *SessionHandler) LogoutAll(c echo.Context) error {
	principal := deliverycontext.GetPrincipal(c.Request().Context())
	if principal == nil {
		return errors.Wrap(domainerrors.ErrAuthentication, "no authenticated principal")
	}

	if err := h.uc.LogoutAll(c.Request().Context(), principal.SubjectID); err != nil {
		return errors.WithStack(err)
	}

	h.cookies.ClearSessionCookies(c)

	return response.OK(c, map[string]string{"message": "Logged out everywhere"})
}

// meResponse extends the identity with the permissions its role grants.
type meResponse struct {
	*identityResponse
	Permissions []entity.Permission `json:"permissions"`
}

// Me returns the identity of the authenticated caller along with the
// effective permissions derived from its role.
func (h *SessionHandler) Me(c echo.Context) error {
	principal := deliverycontext.GetPrincipal(c.Request().Context())
	if principal == nil {
		return errors.Wrap(domainerrors.ErrAuthentication, "no authenticated principal")
	}

	identity, err := h.uc.GetIdentity(c.Request().Context(), principal.SubjectID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, &meResponse{
		identityResponse: toIdentityResponse(identity),
		Permissions:      identity.Role.Permissions(),
	})
}

// GetIdentity returns an arbitrary identity by ID. Restricted to admins by
// the route's role allow-list.
func (h *SessionHandler) GetIdentity(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domainerrors.ErrValidation.WithDetails("id must be a valid UUID")
	}

	identity, err := h.uc.GetIdentity(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, toIdentityResponse(identity))
}
