package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load("missing.yml")
	require.NoError(t, err)
	assert.EqualValues(t, 8080, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, ".edu.pk", cfg.Auth.EmailSuffix)
	assert.False(t, cfg.Auth.RequireVerification)

	ttl, err := cfg.TokenTTL()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, ttl)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Karachi", loc.String())
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal")
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
auth:
  jwt_secret: ${APP_SECRET}
  require_verification: true
`), 0o600))
	t.Setenv("APP_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.EqualValues(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.RequireVerification)
	// Sections the file leaves out keep their defaults.
	assert.Equal(t, "168h", cfg.Auth.JWTExpire)
	assert.Equal(t, "Asia/Karachi", cfg.App.Timezone)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := &Config{Auth: AuthCfg{JWTSecret: "x", JWTExpire: "soon"}, App: AppCfg{Timezone: "UTC"}}
	assert.Error(t, cfg.Validate())

	cfg.Auth.JWTExpire = "1h"
	cfg.App.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg.App.Timezone = "UTC"
	assert.NoError(t, cfg.Validate())
}
