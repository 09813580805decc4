package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
mysql:
  host: db.internal
  port: 3306
  username: trigao
  password: secret
  database: trigao
auth:
  secret: test-secret
  token_ttl: 30m
cors:
  allowed_origins:
    - http://localhost:5173
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "default applies when unset")
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t,
		"trigao:secret@tcp(db.internal:3306)/trigao?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.MySQL.DSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
