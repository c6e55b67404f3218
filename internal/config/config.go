package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config carries everything the server needs from the environment.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string

	// DataDir holds the local snapshot used when the store is
	// unreachable at startup.
	DataDir string

	JWTSecret string
	JWTExpiry time.Duration

	MQTTBroker string
	MQTTPrefix string

	// SyncDelay is the quiet window before pending changes are pushed;
	// SyncMaxBackoff caps the retry interval after push failures.
	SyncDelay      time.Duration
	SyncMaxBackoff time.Duration
}

// Load reads the optional .env file and assembles the configuration
// with sensible defaults for local development.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}

	return Config{
		Port:           envOr("PORT", "8080"),
		MongoURI:       envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        envOr("MONGO_DB", "plant_maintenance"),
		DataDir:        envOr("DATA_DIR", "./data"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      envDuration("JWT_EXPIRY_SECONDS", 24*time.Hour),
		MQTTBroker:     os.Getenv("MQTT_BROKER"),
		MQTTPrefix:     envOr("MQTT_PREFIX", "plant/maintenance"),
		SyncDelay:      envDuration("SYNC_DELAY_SECONDS", 2*time.Second),
		SyncMaxBackoff: envDuration("SYNC_MAX_BACKOFF_SECONDS", 60*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		log.WithField("key", key).Warnf("Invalid duration %q, using default", v)
		return fallback
	}
	return time.Duration(secs) * time.Second
}
