package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GIN_MODE", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 25*time.Second, cfg.Presence.TTL)
	assert.Equal(t, PresenceBackendDB, cfg.Presence.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Permissions.CacheTTL)
	assert.Empty(t, cfg.Access.ScopedRoles)
	assert.NotEmpty(t, cfg.JWTSecret())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("PRESENCE_BACKEND", "redis")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, PresenceBackendRedis, cfg.Presence.Backend)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret())
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=6543")
}

func TestLoad_ReleaseRequiresSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_PresenceBackend(t *testing.T) {
	cfg := Config{Presence: PresenceConfig{TTL: time.Second, Backend: "memcached"}}
	assert.Error(t, cfg.Validate())

	cfg.Presence.Backend = PresenceBackendDB
	assert.NoError(t, cfg.Validate())

	cfg.Presence.TTL = 0
	assert.Error(t, cfg.Validate())
}
