package config

import (
	"fmt"
	"strconv"
	"time"
)

const envPrefix = "ZKVAULT_"

// loadEnv читает переменные окружения ZKVAULT_*; пустые значения игнорируются
func (c *Config) loadEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}

	texts := map[string]*string{
		"ADDR":         &c.Addr,
		"STORAGE":      &c.Storage,
		"DATABASE_DSN": &c.DatabaseDSN,
		"JWT_SECRET":   &c.JWTSecret,
		"SALT_SECRET":  &c.SaltSecret,
		"LOG_LEVEL":    &c.LogLevel,
		"LOG_FORMAT":   &c.LogFormat,
	}
	for name, dst := range texts {
		if v := getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":       &c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL":      &c.RefreshTokenTTL,
		"AUTH_RATE_WINDOW":       &c.AuthRateWindow,
		"TOKEN_CLEANUP_INTERVAL": &c.TokenCleanupInterval,
		"SHUTDOWN_TIMEOUT":       &c.ShutdownTimeout,
	}
	for name, dst := range durations {
		v := getenv(envPrefix + name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"BCRYPT_COST":     &c.BcryptCost,
		"AUTH_RATE_LIMIT": &c.AuthRateLimit,
	}
	for name, dst := range ints {
		v := getenv(envPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}

	if v := getenv(envPrefix + "METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", envPrefix, err)
		}
		c.MetricsEnabled = b
	}

	return nil
}
