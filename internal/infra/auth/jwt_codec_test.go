package auth

import (
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodecConfig() *config.Config {
	cfg := &config.Config{
		SecretKey: "test_signing_secret_key_very_long_for_testing",
		Auth: &config.AuthConfig{
			AccessTokenTTL:  "15m",
			RefreshTokenTTL: "7d",
			BcryptCost:      10,
		},
	}

	return cfg
}

func newTestIdentity() *entity.Identity {
	return &entity.Identity{
		ID:     uuid.New(),
		Email:  "test@example.com",
		Role:   entity.RoleUser,
		Active: true,
	}
}

func TestJWTCodec_IssueAndVerifyPair(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	identity := newTestIdentity()

	pair, err := codec.IssuePair(identity)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessClaims, err := codec.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, accessClaims.SubjectID)
	assert.Equal(t, identity.Email, accessClaims.Email)
	assert.Equal(t, entity.RoleUser, accessClaims.Role)
	assert.Equal(t, entity.TokenClassAccess, accessClaims.Class)

	refreshClaims, err := codec.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, refreshClaims.SubjectID)
	assert.Equal(t, entity.TokenClassRefresh, refreshClaims.Class)
}

func TestJWTCodec_MalformedToken(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	claims, err := codec.Verify("clearly-not-a-jwt-token-format")
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrMalformedToken))
}

func TestJWTCodec_InvalidSignature(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	otherCfg := newTestCodecConfig()
	otherCfg.SecretKey = "a_completely_different_signing_secret_key"
	otherCodec, err := NewJWTCodec(otherCfg)
	require.NoError(t, err)

	pair, err := otherCodec.IssuePair(newTestIdentity())
	require.NoError(t, err)

	claims, err := codec.Verify(pair.AccessToken)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrInvalidSignature))
}

func TestJWTCodec_ExpiredToken(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	jc, ok := codec.(*jwtCodec)
	require.True(t, ok)

	// Issue at a fixed time, then verify with the clock past the expiry.
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	jc.now = func() time.Time { return issuedAt }

	pair, err := codec.IssuePair(newTestIdentity())
	require.NoError(t, err)

	jc.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }

	claims, err := codec.Verify(pair.AccessToken)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrTokenExpired))

	// The refresh token has a 7 day lifetime and is still valid.
	refreshClaims, err := codec.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, entity.TokenClassRefresh, refreshClaims.Class)
}

func TestJWTCodec_WrongTokenClass(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	identity := newTestIdentity()
	pair, err := codec.IssuePair(identity)
	require.NoError(t, err)

	// A refresh token must not pass where an access token is required.
	claims, err := codec.VerifyClass(pair.RefreshToken, entity.TokenClassAccess)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrWrongTokenClass))

	// And the other way around.
	claims, err = codec.VerifyClass(pair.AccessToken, entity.TokenClassRefresh)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, service.ErrWrongTokenClass))

	// The matching class recovers the subject.
	claims, err = codec.VerifyClass(pair.AccessToken, entity.TokenClassAccess)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, claims.SubjectID)
}

func TestJWTCodec_EmptySecret(t *testing.T) {
	cfg := newTestCodecConfig()
	cfg.SecretKey = ""

	codec, err := NewJWTCodec(cfg)
	assert.Nil(t, codec)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "signing secret")
}

func TestJWTCodec_TTLs(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, codec.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, codec.RefreshTTL())
}

func TestJWTCodec_HashToken(t *testing.T) {
	codec, err := NewJWTCodec(newTestCodecConfig())
	require.NoError(t, err)

	h1 := codec.HashToken("some-token")
	h2 := codec.HashToken("some-token")
	h3 := codec.HashToken("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64) // hex sha256
	assert.NotContains(t, h1, "some-token")
}
