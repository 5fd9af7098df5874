package config

import (
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// viper ignores empty environment values, so these fall back to defaults
	for _, key := range []string{"PORTAL_BASE_URL", "HISTORY_YEARS", "BQ_DATASET", "CATEGORIZER", "SYNC_INTERVAL", "API_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://mabanque.fortuneo.fr", cfg.PortalBaseURL)
	assert.Equal(t, 2, cfg.HistoryYears)
	assert.Equal(t, "banking", cfg.Dataset)
	assert.Equal(t, "rules", cfg.Categorizer)
	assert.Equal(t, 24*time.Hour, cfg.SyncInterval)
	assert.Equal(t, "8080", cfg.APIPort)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORTAL_BASE_URL", "https://portal.example/")
	t.Setenv("PORTAL_LOGIN", "alice")
	t.Setenv("PORTAL_PASSWORD", "secret")
	t.Setenv("GCP_PROJECT_ID", "proj")
	t.Setenv("HISTORY_YEARS", "1")
	t.Setenv("CATEGORIZER", "GEMINI")
	t.Setenv("SYNC_INTERVAL", "6h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example", cfg.PortalBaseURL)
	assert.Equal(t, "alice", cfg.Login)
	assert.Equal(t, 1, cfg.HistoryYears)
	assert.Equal(t, "gemini", cfg.Categorizer)
	assert.Equal(t, 6*time.Hour, cfg.SyncInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_HistoryYearsCapped(t *testing.T) {
	t.Setenv("HISTORY_YEARS", "5")
	t.Setenv("CATEGORIZER", "rules")
	t.Setenv("SYNC_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.HistoryYears)
}

func TestLoad_InvalidCategorizer(t *testing.T) {
	t.Setenv("CATEGORIZER", "magic")
	t.Setenv("SYNC_INTERVAL", "1h")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("CATEGORIZER", "rules")
	t.Setenv("SYNC_INTERVAL", "often")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := &Config{PortalBaseURL: "https://portal.example", ProjectID: "proj"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "PORTAL_LOGIN")
	assert.Contains(t, err.Error(), "PORTAL_PASSWORD")
}
