package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	raw := `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.local
  port: 5433
  user: app
  password: hunter2
  dbname: social_chat
  sslmode: require
jwt:
  secret: topsecret
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "topsecret", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.APNs.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.local",
		Port:     5433,
		User:     "app",
		Password: "hunter2",
		DBName:   "social_chat",
		SSLMode:  "require",
	}
	assert.Equal(t, "host=db.local port=5433 user=app password=hunter2 dbname=social_chat sslmode=require", db.DSN())
}
