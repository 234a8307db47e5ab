package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Port        string `toml:"port"`
	Environment string `toml:"environment"`
	CORSOrigins string `toml:"cors_origins"`

	// Model configuration
	DefaultModel string `toml:"default_model"`
	// TitleModel is the designated fast model used for fire-and-forget
	// conversation title summarization.
	TitleModel string `toml:"title_model"`

	// Local data locations
	DataDir      string `toml:"data_dir"`
	DatabasePath string `toml:"database_path"` // sqlite conversation archive
	SettingsPath string `toml:"settings_path"` // bbolt settings store
	ImageDir     string `toml:"image_dir"`     // generated image output

	// Debug enables verbose logging
	Debug bool `toml:"debug"`
}

// Load builds configuration from an optional TOML file overlaid by
// environment variables. Environment always wins, so deployments can
// override a checked-in config file without editing it.
func Load() *Config {
	cfg := defaults()

	// Optional config file (desktop installs keep one next to the data dir)
	if path := getEnv("CONFIG_FILE", filepath.Join(cfg.DataDir, "config.toml")); path != "" {
		// Missing file is fine; only decode errors are ignored silently here
		// because logging is not set up yet.
		_, _ = toml.DecodeFile(path, cfg)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.DefaultModel = getEnv("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.TitleModel = getEnv("TITLE_MODEL", cfg.TitleModel)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.DatabasePath = getEnv("DATABASE_PATH", filepath.Join(cfg.DataDir, "conversations.db"))
	cfg.SettingsPath = getEnv("SETTINGS_PATH", filepath.Join(cfg.DataDir, "settings.bolt"))
	cfg.ImageDir = getEnv("IMAGE_DIR", filepath.Join(cfg.DataDir, "images"))
	cfg.Debug = getEnv("DEBUG", getDefaultDebug(cfg.Environment)) == "true"

	return cfg
}

func defaults() *Config {
	return &Config{
		Port:         "8080",
		Environment:  "dev",
		CORSOrigins:  "http://localhost:3000",
		DefaultModel: "anthropic.claude-3-sonnet-20240229-v1:0",
		TitleModel:   "anthropic.claude-3-haiku-20240307-v1:0",
		DataDir:      defaultDataDir(),
	}
}

// defaultDataDir resolves the per-user data directory, falling back to the
// working directory when the home directory is unavailable.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "data"
	}
	return filepath.Join(home, ".bedrockchat")
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
