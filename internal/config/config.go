// Package config loads server settings from defaults, an optional YAML file,
// an optional .env file and CO2_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/acbay/co2survey/internal/utils"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	StaticDir     string        `yaml:"static_dir"`
	DB            DBConfig      `yaml:"db"`
	Auth          AuthConfig    `yaml:"auth"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	Log           LogConfig     `yaml:"log"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
}

type DBConfig struct {
	// Driver is memory, sqlite or postgres. Empty means infer from DSN.
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	SuperAdminEmail    string        `yaml:"super_admin_email"`
	SuperAdminPassword string        `yaml:"super_admin_password"`
	// BootstrapAdmin makes serve create or promote the super admin on start.
	BootstrapAdmin bool `yaml:"bootstrap_admin"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Addr:        ":8080",
		StaticDir:   "./web",
		DB:          DBConfig{Driver: "memory"},
		CORSOrigins: []string{"*"},
		Auth: AuthConfig{
			JWTSecret:          "co2survey-dev-secret",
			TokenTTL:           7 * 24 * time.Hour,
			SuperAdminEmail:    "import@localhost",
			SuperAdminPassword: "Admin123!",
			BootstrapAdmin:     true,
		},
		Log:           LogConfig{Level: "info", Format: "console"},
		ShutdownGrace: 10 * time.Second,
	}
}

// Load builds the config. A missing YAML file at path is an error; an empty
// path skips the file. A .env file in the working directory is read when
// present and never overrides variables that are already set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := loadEnvIfExists(".env"); err != nil {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func loadEnvIfExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *Config) {
	cfg.Addr = utils.SafeEnv("CO2_ADDR", cfg.Addr)
	cfg.StaticDir = utils.SafeEnv("CO2_STATIC_DIR", cfg.StaticDir)
	cfg.DB.Driver = utils.SafeEnv("CO2_DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = utils.SafeEnv("CO2_DB_DSN", utils.SafeEnv("DATABASE_URL", cfg.DB.DSN))
	cfg.DB.MigrationsDir = utils.SafeEnv("CO2_MIGRATIONS_DIR", cfg.DB.MigrationsDir)
	cfg.Auth.JWTSecret = utils.SafeEnv("CO2_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = utils.EnvDuration("CO2_TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.SuperAdminEmail = utils.SafeEnv("CO2_SUPER_ADMIN_EMAIL", cfg.Auth.SuperAdminEmail)
	cfg.Auth.SuperAdminPassword = utils.SafeEnv("CO2_SUPER_ADMIN_PASSWORD", cfg.Auth.SuperAdminPassword)
	cfg.Auth.BootstrapAdmin = utils.EnvBool("CO2_BOOTSTRAP_ADMIN", cfg.Auth.BootstrapAdmin)
	cfg.CORSOrigins = utils.EnvList("CO2_CORS_ORIGINS", cfg.CORSOrigins)
	cfg.Log.Level = utils.SafeEnv("CO2_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = utils.SafeEnv("CO2_LOG_FORMAT", cfg.Log.Format)
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.DB.Driver) {
	case "", "memory", "sqlite", "sqlite3", "postgres", "postgresql", "pg", "pgx":
	default:
		errs = append(errs, fmt.Errorf("db.driver %q is not one of memory, sqlite, postgres", c.DB.Driver))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not console or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// UsesMemory reports whether the in-process store is selected.
func (c Config) UsesMemory() bool {
	return strings.EqualFold(c.DB.Driver, "memory") || (c.DB.Driver == "" && c.DB.DSN == "")
}
