package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"APP_PORT", "LOG_LEVEL", "STORE_DRIVER", "MONGODB_URI", "MONGODB_DB_NAME", "TIMEZONE",
	"DIGEST_CRON_SCHEDULE", "DIGEST_ENABLED", "WHATSAPP_TOKEN", "WHATSAPP_PHONE_NUMBER_ID",
	"META_VERIFY_TOKEN", "WHATSAPP_BASE_URL", "WHATSAPP_API_VERSION", "WHATSAPP_DIGEST_RECIPIENT",
	"GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "GOOGLE_SHEET_DIGEST_RANGE",
}

// clearEnv blanks every key so the process environment cannot leak into a case.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(missingEnvFile(t))

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "batchbook", cfg.MongoDB.DBName)
	assert.Equal(t, "0 21 * * *", cfg.Digest.CronSchedule)
	assert.False(t, cfg.Digest.Enabled)
	assert.Equal(t, "Digest!A:K", cfg.Sheets.DigestRange)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.False(t, cfg.Sheets.Enabled())
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Location().String())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range keys {
		// godotenv does not override variables that are already set.
		require.NoError(t, os.Unsetenv(key))
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "STORE_DRIVER=mongodb\nMONGODB_URI=mongodb://localhost:27017\nAPP_PORT=9090\nDIGEST_ENABLED=true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range keys {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, DriverMongoDB, cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.True(t, cfg.Digest.Enabled)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"mongodb without uri":   {"STORE_DRIVER": "mongodb"},
		"unknown driver":        {"STORE_DRIVER": "postgres"},
		"bad timezone":          {"STORE_DRIVER": "memory", "TIMEZONE": "Mars/Olympus"},
		"partial whatsapp":      {"STORE_DRIVER": "memory", "WHATSAPP_TOKEN": "token"},
		"partial sheets":        {"STORE_DRIVER": "memory", "GOOGLE_SHEET_DATABASE_ID": "sheet"},
		"malformed digest flag": {"STORE_DRIVER": "memory", "DIGEST_ENABLED": "sometimes"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for key, value := range env {
				t.Setenv(key, value)
			}

			_, err := Load(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FullIntegrations(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")
	t.Setenv("META_VERIFY_TOKEN", "verify")
	t.Setenv("GOOGLE_SHEETS_CREDENTIALS_PATH", "/etc/creds.json")
	t.Setenv("GOOGLE_SHEET_DATABASE_ID", "sheet")

	cfg, err := Load(missingEnvFile(t))

	require.NoError(t, err)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.True(t, cfg.Sheets.Enabled())
	assert.Equal(t, "v20.0", cfg.WhatsApp.APIVersion)
}
