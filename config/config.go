// Package config loads server configuration from config.toml and the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "dev-secret-change-me"

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
	Overdue  OverdueConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Timezone string
	SeedDemo bool
}

// DatabaseConfig selects the Entity Store backend.
type DatabaseConfig struct {
	Driver string // memory, sqlite
	Path   string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	TokenTTL      time.Duration
	AllowDevLogin bool
}

type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// OverdueConfig drives the reconciliation job and the fee calculator.
type OverdueConfig struct {
	Enabled             bool
	Schedule            string // cron spec with seconds field
	AnnualRate          string
	LegacyDueDateCharge bool
}

// Load reads configuration.
// Priority (highest to lowest):
// 1. Environment variables with FORKLIFT_ prefix (e.g., FORKLIFT_DATABASE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/forklift-rental")

	v.SetDefault("app.seed_demo", true)
	v.SetDefault("auth.allow_dev_login", true)
	v.SetDefault("overdue.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("FORKLIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			Timezone: v.GetString("app.timezone"),
			SeedDemo: v.GetBool("app.seed_demo"),
		},
		Database: DatabaseConfig{
			Driver: v.GetString("database.driver"),
			Path:   v.GetString("database.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("auth.jwt_secret"),
			Issuer:        v.GetString("auth.issuer"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			AllowDevLogin: v.GetBool("auth.allow_dev_login"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Overdue: OverdueConfig{
			Enabled:             v.GetBool("overdue.enabled"),
			Schedule:            v.GetString("overdue.schedule"),
			AnnualRate:          v.GetString("overdue.annual_rate"),
			LegacyDueDateCharge: v.GetBool("overdue.legacy_due_date_charge"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "forklift-rental"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Seoul"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "forklift.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = DefaultJWTSecret
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.App.Name
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 12 * time.Hour
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if cfg.Overdue.Schedule == "" {
		cfg.Overdue.Schedule = "0 0 1 * * *"
	}
	if cfg.Overdue.AnnualRate == "" {
		cfg.Overdue.AnnualRate = "0.20"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("database.driver must be memory or sqlite, got %q", c.Database.Driver)
	}
	if c.App.Env == "production" {
		if c.Auth.JWTSecret == DefaultJWTSecret {
			return fmt.Errorf("auth.jwt_secret must be set in production")
		}
		if c.Auth.AllowDevLogin {
			return fmt.Errorf("auth.allow_dev_login must be disabled in production")
		}
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("app.timezone: %w", err)
	}
	rate, err := decimal.NewFromString(c.Overdue.AnnualRate)
	if err != nil || !rate.IsPositive() {
		return fmt.Errorf("overdue.annual_rate must be a positive decimal, got %q", c.Overdue.AnnualRate)
	}
	if _, err := cronParser.Parse(c.Overdue.Schedule); err != nil {
		return fmt.Errorf("overdue.schedule: %w", err)
	}
	return nil
}

// cronParser accepts the same six-field specs as the scheduler.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Rate returns the overdue annual rate as a decimal.
func (c *Config) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.Overdue.AnnualRate)
	if err != nil {
		return decimal.RequireFromString("0.20")
	}
	return rate
}

func (c *Config) IsProduction() bool { return c.App.Env == "production" }
