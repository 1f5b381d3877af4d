package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=clinic port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string `mapstructure:"HTTP_PORT"`
	DatabaseDSN    string `mapstructure:"DATABASE_DSN"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	CORSOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	Env            string `mapstructure:"ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	ReportCron     string `mapstructure:"REPORT_CRON"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`
}

var keys = []string{
	"HTTP_PORT",
	"DATABASE_DSN",
	"JWT_SECRET",
	"CORS_ALLOWED_ORIGINS",
	"ENV",
	"LOG_LEVEL",
	"REPORT_CRON",
	"DB_MAX_OPEN_CONNS",
	"DB_MAX_IDLE_CONNS",
}

// Load reads .env (if present) and the process environment. The result is
// not validated; call Validate before serving.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REPORT_CRON", "0 2 1 * *")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server must not start with and warns about
// development defaults.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.DBMaxIdleConns > c.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) exceeds DB_MAX_OPEN_CONNS (%d)", c.DBMaxIdleConns, c.DBMaxOpenConns)
	}

	if c.DatabaseDSN == defaultDSN {
		log.Warn().Msg("DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultCORSOrigins {
		log.Warn().Msg("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AllowedOrigins returns the comma separated CORS origins, trimmed.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
