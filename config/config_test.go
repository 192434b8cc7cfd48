package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"dbName":  "gatekeeper",
		},
		"auth": map[string]any{
			"accessTokenTTL": "15m",
		},
		"secretKey": "",
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_DBNAME", want: "postgres.dbName"},
		{envKey: "AUTH_ACCESSTOKENTTL", want: "auth.accessTokenTTL"},
		{envKey: "SECRETKEY", want: "secretKey"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "", wantErr: true},
		{in: "sevend", wantErr: true},
		{in: "7w", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		SecretKey: "super-secret-signing-key",
		Postgres:  &PostgresConfig{Host: "localhost", Port: 5432, DBName: "gatekeeper"},
	}

	require.NoError(t, cfg.applyDefaults())
	assert.Equal(t, "15m", cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "7d", cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 5, cfg.Bootstrap.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Bootstrap.RetryInterval)
	assert.Equal(t, "fixed", cfg.Bootstrap.Policy)
}

func TestApplyDefaults_RequiredSettings(t *testing.T) {
	// Missing signing secret must fail startup.
	cfg := &Config{Postgres: &PostgresConfig{Host: "localhost", DBName: "gatekeeper"}}
	assert.Error(t, cfg.applyDefaults())

	// Missing datastore settings must fail startup.
	cfg = &Config{SecretKey: "super-secret-signing-key"}
	assert.Error(t, cfg.applyDefaults())
}

func TestPostgresConfig_DSN(t *testing.T) {
	p := &PostgresConfig{
		Host:     "db",
		Port:     5432,
		UserName: "gatekeeper",
		Password: "secret",
		DBName:   "identity",
	}

	dsn := p.DSN()
	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "user=gatekeeper")
	assert.Contains(t, dsn, "dbname=identity")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "password=secret")
}
