package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/forklift-rental/config"
)

// isolate runs the test from an empty directory so no config.toml is found.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "forklift-rental", cfg.App.Name)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.SeedDemo)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, config.DefaultJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "forklift-rental", cfg.Auth.Issuer)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.AllowDevLogin)
	assert.True(t, cfg.Overdue.Enabled)
	assert.Equal(t, "0 0 1 * * *", cfg.Overdue.Schedule)
	assert.Equal(t, "0.2", cfg.Rate().String())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FORKLIFT_DATABASE_DRIVER", "memory")
	t.Setenv("FORKLIFT_APP_PORT", "9090")
	t.Setenv("FORKLIFT_AUTH_TOKEN_TTL", "30m")
	t.Setenv("FORKLIFT_AUTH_ALLOW_DEV_LOGIN", "false")
	t.Setenv("FORKLIFT_OVERDUE_ANNUAL_RATE", "0.12")
	t.Setenv("FORKLIFT_OVERDUE_LEGACY_DUE_DATE_CHARGE", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.AllowDevLogin)
	assert.Equal(t, "0.12", cfg.Rate().String())
	assert.True(t, cfg.Overdue.LegacyDueDateCharge)
}

func TestLoad_ConfigFile(t *testing.T) {
	// GIVEN: A config.toml in the working directory and one env override
	dir := isolate(t)
	toml := `
[app]
timezone = "UTC"

[database]
driver = "memory"

[overdue]
schedule = "0 30 2 * * *"
annual_rate = "0.15"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0o644))
	t.Setenv("FORKLIFT_OVERDUE_ANNUAL_RATE", "0.18")

	// WHEN: Loading
	cfg, err := config.Load()

	// THEN: File values apply and the environment wins over the file
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.Equal(t, "0 30 2 * * *", cfg.Overdue.Schedule)
	assert.Equal(t, "0.18", cfg.Rate().String())
}

func TestLoad_Production(t *testing.T) {
	isolate(t)
	t.Setenv("FORKLIFT_APP_ENV", "production")
	t.Setenv("FORKLIFT_AUTH_JWT_SECRET", "a-real-secret")
	t.Setenv("FORKLIFT_AUTH_ALLOW_DEV_LOGIN", "false")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"FORKLIFT_DATABASE_DRIVER": "postgres"}, "database.driver"},
		{"production default secret", map[string]string{"FORKLIFT_APP_ENV": "production", "FORKLIFT_AUTH_ALLOW_DEV_LOGIN": "false"}, "jwt_secret"},
		{"production dev login", map[string]string{"FORKLIFT_APP_ENV": "production", "FORKLIFT_AUTH_JWT_SECRET": "x"}, "allow_dev_login"},
		{"unknown timezone", map[string]string{"FORKLIFT_APP_TIMEZONE": "Mars/Olympus_Mons"}, "app.timezone"},
		{"negative rate", map[string]string{"FORKLIFT_OVERDUE_ANNUAL_RATE": "-0.1"}, "annual_rate"},
		{"non-numeric rate", map[string]string{"FORKLIFT_OVERDUE_ANNUAL_RATE": "twenty"}, "annual_rate"},
		{"five-field schedule", map[string]string{"FORKLIFT_OVERDUE_SCHEDULE": "0 1 * * *"}, "overdue.schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
