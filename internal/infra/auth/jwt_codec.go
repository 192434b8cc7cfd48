// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenClaims is the wire shape of the token payload. The class lives in
// the "type" claim and is checked after signature verification.
type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// jwtCodec implements service.TokenCodec using HS256-signed JWTs. Both token
// classes are signed with the same secret; separation is enforced by the
// type claim, not by key separation.
type jwtCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTCodec is the constructor for jwtCodec. It fails when the signing
// secret is absent so a misconfigured process never starts serving.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt signing secret must be provided")
	}

	accessTTL, err := cfg.AccessTokenTTL()
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token ttl")
	}
	refreshTTL, err := cfg.RefreshTokenTTL()
	if err != nil {
		return nil, errors.Wrap(err, "invalid refresh token ttl")
	}

	return &jwtCodec{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// Issue produces a signed token of the given class for the identity.
func (c *jwtCodec) Issue(identity *entity.Identity, class entity.TokenClass, ttl time.Duration) (string, error) {
	if !class.IsValid() {
		return "", errors.Errorf("unknown token class: %s", class)
	}

	now := c.now()
	claims := &tokenClaims{
		Email: identity.Email,
		Role:  identity.Role.String(),
		Type:  class.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

// IssuePair issues a fresh access/refresh pair bound to the identity.
func (c *jwtCodec) IssuePair(identity *entity.Identity) (*entity.TokenPair, error) {
	accessToken, err := c.Issue(identity, entity.TokenClassAccess, c.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := c.Issue(identity, entity.TokenClassRefresh, c.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &entity.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Verify checks signature and expiry against the verifier's clock and
// returns the decoded claims.
func (c *jwtCodec) Verify(token string) (*service.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, translateJWTError(err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, errors.WithStack(service.ErrMalformedToken)
	}

	return c.toDomainClaims(claims)
}

// VerifyClass calls Verify, then enforces the expected token class so an
// access token can never be replayed as a refresh token and vice versa.
func (c *jwtCodec) VerifyClass(token string, expected entity.TokenClass) (*service.Claims, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return nil, err
	}

	if claims.Class != expected {
		return nil, errors.Wrapf(service.ErrWrongTokenClass, "expected %s token, got %s", expected, claims.Class)
	}

	return claims, nil
}

// HashToken returns the hex SHA-256 of a raw token for use as a storage key.
func (c *jwtCodec) HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// AccessTTL returns the configured access token lifetime.
func (c *jwtCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *jwtCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *jwtCodec) toDomainClaims(claims *tokenClaims) (*service.Claims, error) {
	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(service.ErrMalformedToken, "subject is not a valid id")
	}

	class := entity.TokenClass(claims.Type)
	if !class.IsValid() {
		return nil, errors.Wrap(service.ErrMalformedToken, "unknown token class")
	}

	out := &service.Claims{
		SubjectID: subjectID,
		Email:     claims.Email,
		Role:      entity.Role(claims.Role),
		Class:     class,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	return out, nil
}

// translateJWTError maps library failures onto the domain's verification
// failure modes. Expiry is reported before signature concerns by jwt/v5, so
// check it first to keep the distinction stable.
func translateJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(service.ErrTokenExpired, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return errors.Wrap(service.ErrInvalidSignature, err.Error())
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Wrap(service.ErrMalformedToken, err.Error())
	default:
		return errors.Wrap(service.ErrMalformedToken, err.Error())
	}
}
