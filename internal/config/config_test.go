package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB", "")
	t.Setenv("SYNC_DELAY_SECONDS", "")
	t.Setenv("JWT_EXPIRY_SECONDS", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "plant_maintenance", cfg.MongoDB)
	assert.Equal(t, 2*time.Second, cfg.SyncDelay)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MONGO_DB", "plant_test")
	t.Setenv("SYNC_DELAY_SECONDS", "5")
	t.Setenv("SYNC_MAX_BACKOFF_SECONDS", "bogus")
	t.Setenv("JWT_EXPIRY_SECONDS", "3600")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "plant_test", cfg.MongoDB)
	assert.Equal(t, 5*time.Second, cfg.SyncDelay)
	assert.Equal(t, 60*time.Second, cfg.SyncMaxBackoff)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
}
