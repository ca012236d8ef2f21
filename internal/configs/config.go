// Package configs loads application configuration from the environment.
package configs

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/recipeai/core/internal/logging"
)

// SyncConfig holds settings for the favorite-sync engine.
type SyncConfig struct {
	// OfflinePollInterval is how often the dispatcher re-checks
	// connectivity while a sync request is parked offline.
	OfflinePollInterval time.Duration

	// ForceOffline disables all network access; the app serves cached
	// data only. Used in tests and demos.
	ForceOffline bool

	// ProbeAddress is the host:port the connectivity probe dials.
	ProbeAddress string
}

// APIConfig holds endpoints for the remote collaborators.
type APIConfig struct {
	FavoritesBaseURL string
	CatalogBaseURL   string
	GeneratorBaseURL string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig holds the full application configuration.
type AppConfig struct {
	DataDir string
	API     APIConfig
	Sync    SyncConfig
	Log     LogConfig
}

// Load reads configuration from the environment, optionally loading a
// .env file first. A missing .env file is not an error.
func Load(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		logging.Debug("no .env file loaded", map[string]any{"path": envPath})
	}

	cfg := &AppConfig{}

	cfg.DataDir = getString("RECIPEAI_DATA_DIR", defaultDataDir())
	cfg.API.FavoritesBaseURL = getString("RECIPEAI_FAVORITES_URL", "http://localhost:8090")
	cfg.API.CatalogBaseURL = getString("RECIPEAI_CATALOG_URL", "http://localhost:8090")
	cfg.API.GeneratorBaseURL = getString("RECIPEAI_GENERATOR_URL", "http://localhost:8090")

	cfg.Sync.OfflinePollInterval = getDuration("RECIPEAI_OFFLINE_POLL", time.Minute)
	cfg.Sync.ForceOffline = getBool("RECIPEAI_FORCE_OFFLINE", false)
	cfg.Sync.ProbeAddress = getString("RECIPEAI_PROBE_ADDR", "1.1.1.1:443")

	cfg.Log.Level = getString("RECIPEAI_LOG_LEVEL", "info")
	cfg.Log.Format = getString("RECIPEAI_LOG_FORMAT", "console")

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".recipeai")
}

func getString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		logging.Warn("invalid bool in environment, using default", map[string]any{
			"key": key, "value": valStr,
		})
		return defaultValue
	}
	return valBool
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		logging.Warn("invalid duration in environment, using default", map[string]any{
			"key": key, "value": valStr,
		})
		return defaultValue
	}
	return d
}
