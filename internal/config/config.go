package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Categorizer names accepted in CATEGORIZER.
const (
	CategorizerRules  = "rules"
	CategorizerGemini = "gemini"
)

// Config holds application configuration.
type Config struct {
	// Portal
	PortalBaseURL string
	Login         string
	Password      string // never persisted
	HistoryYears  int

	// Storage
	ProjectID     string
	Dataset       string
	ArchiveBucket string // optional; raw archives are kept only when set

	// Categorization
	Categorizer string // "rules" or "gemini"
	GeminiModel string

	// Runtime
	LogLevel     string
	APIPort      string
	APIToken     string
	SyncInterval time.Duration
}

// Load reads configuration from the environment, after an optional .env file.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORTAL_BASE_URL", "https://mabanque.fortuneo.fr")
	v.SetDefault("PORTAL_LOGIN", "")
	v.SetDefault("PORTAL_PASSWORD", "")
	v.SetDefault("HISTORY_YEARS", 2)
	v.SetDefault("GCP_PROJECT_ID", "")
	v.SetDefault("BQ_DATASET", "banking")
	v.SetDefault("ARCHIVE_BUCKET", "")
	v.SetDefault("CATEGORIZER", CategorizerRules)
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_PORT", "8080")
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("SYNC_INTERVAL", "24h")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		PortalBaseURL: strings.TrimRight(v.GetString("PORTAL_BASE_URL"), "/"),
		Login:         v.GetString("PORTAL_LOGIN"),
		Password:      v.GetString("PORTAL_PASSWORD"),
		HistoryYears:  v.GetInt("HISTORY_YEARS"),
		ProjectID:     v.GetString("GCP_PROJECT_ID"),
		Dataset:       v.GetString("BQ_DATASET"),
		ArchiveBucket: v.GetString("ARCHIVE_BUCKET"),
		Categorizer:   strings.ToLower(v.GetString("CATEGORIZER")),
		GeminiModel:   v.GetString("GEMINI_MODEL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		APIPort:       v.GetString("API_PORT"),
		APIToken:      v.GetString("API_TOKEN"),
	}

	interval, err := time.ParseDuration(v.GetString("SYNC_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid SYNC_INTERVAL %q: %w", v.GetString("SYNC_INTERVAL"), err)
	}
	cfg.SyncInterval = interval

	// The portal only serves two years of history.
	if cfg.HistoryYears <= 0 || cfg.HistoryYears > 2 {
		cfg.HistoryYears = 2
	}

	switch cfg.Categorizer {
	case CategorizerRules, CategorizerGemini:
	default:
		return nil, fmt.Errorf("config: %w: CATEGORIZER must be rules or gemini, got %q", apperrors.ErrValidation, cfg.Categorizer)
	}

	return cfg, nil
}

// Validate checks the settings a portal sync needs.
func (c *Config) Validate() error {
	var missing []string
	if c.PortalBaseURL == "" {
		missing = append(missing, "PORTAL_BASE_URL")
	}
	if c.Login == "" {
		missing = append(missing, "PORTAL_LOGIN")
	}
	if c.Password == "" {
		missing = append(missing, "PORTAL_PASSWORD")
	}
	if c.ProjectID == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: %w: missing %s", apperrors.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
