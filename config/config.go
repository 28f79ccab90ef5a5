/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Defaults below
  2. An optional .env file (godotenv; missing file is fine)
  3. Environment variables with the FEES_ prefix, e.g. FEES_PORT=9090
  4. Command-line flags applied by cmd/server

KEYS:
  env              development | production
  port             HTTP port
  db_path          SQLite path, ":memory:" for an ephemeral store
  jwt_secret       HS256 signing secret (required in production)
  token_ttl        session token lifetime, e.g. "12h"
  bcrypt_cost      bcrypt work factor
  admin_email      bootstrap admin, created when no admin exists
  admin_password
  seed_demo        load the demo students into an empty roster
  report_schedule  cron spec for the daily report job, "" disables it
  export_dir       where the daily report job writes workbooks, "" = log only
  allowed_origins  comma-separated CORS origins
  log_level        zap level name
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "FEES"

// DevJWTSecret is the signing secret used outside production when none is set.
const DevJWTSecret = "dev-only-fee-engine-secret"

// Config is the resolved server configuration.
type Config struct {
	Env            string
	Port           int
	DBPath         string
	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	AdminEmail     string
	AdminPassword  string
	SeedDemo       bool
	ReportSchedule string
	ExportDir      string
	AllowedOrigins []string
	LogLevel       string
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("env", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "fees.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 12*time.Hour)
	v.SetDefault("bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("admin_email", "admin@school.local")
	v.SetDefault("admin_password", "")
	v.SetDefault("seed_demo", false)
	v.SetDefault("report_schedule", "5 0 * * *")
	v.SetDefault("export_dir", "")
	v.SetDefault("allowed_origins", "http://localhost:5173,http://localhost:8080")
	v.SetDefault("log_level", "")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. envFile may be empty or point at a file that
// does not exist.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config.godotenv(%s): %w", envFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config.os.Stat(%s): %w", envFile, err)
		}
	}

	v := newViper()
	cfg := &Config{
		Env:            v.GetString("env"),
		Port:           v.GetInt("port"),
		DBPath:         v.GetString("db_path"),
		JWTSecret:      v.GetString("jwt_secret"),
		TokenTTL:       v.GetDuration("token_ttl"),
		BcryptCost:     v.GetInt("bcrypt_cost"),
		AdminEmail:     v.GetString("admin_email"),
		AdminPassword:  v.GetString("admin_password"),
		SeedDemo:       v.GetBool("seed_demo"),
		ReportSchedule: strings.TrimSpace(v.GetString("report_schedule")),
		ExportDir:      v.GetString("export_dir"),
		AllowedOrigins: splitList(v.GetString("allowed_origins")),
		LogLevel:       v.GetString("log_level"),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = DevJWTSecret
	}
	return cfg, nil
}

// Validate checks the values Load cannot check on its own.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required in production"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.ReportSchedule); err != nil {
			errs = append(errs, fmt.Errorf("report_schedule: %w", err))
		}
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
