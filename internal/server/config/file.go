package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig - DTO для JSON/YAML файла. Поля - указатели, чтобы
// отсутствующие в файле ключи не затирали значения по умолчанию.
// Длительности задаются строками: "15m", "720h".
type fileConfig struct {
	Addr                 *string `json:"addr" yaml:"addr"`
	Storage              *string `json:"storage" yaml:"storage"`
	DatabaseDSN          *string `json:"database_dsn" yaml:"database_dsn"`
	JWTSecret            *string `json:"jwt_secret" yaml:"jwt_secret"`
	SaltSecret           *string `json:"salt_secret" yaml:"salt_secret"`
	LogLevel             *string `json:"log_level" yaml:"log_level"`
	LogFormat            *string `json:"log_format" yaml:"log_format"`
	AccessTokenTTL       *string `json:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL      *string `json:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	AuthRateWindow       *string `json:"auth_rate_window" yaml:"auth_rate_window"`
	TokenCleanupInterval *string `json:"token_cleanup_interval" yaml:"token_cleanup_interval"`
	ShutdownTimeout      *string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	BcryptCost           *int    `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	AuthRateLimit        *int    `json:"auth_rate_limit" yaml:"auth_rate_limit"`
	MetricsEnabled       *bool   `json:"metrics_enabled" yaml:"metrics_enabled"`
}

// loadFile читает конфигурацию из файла; формат определяется по расширению
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("failed to parse yaml config %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fc); err != nil {
			return fmt.Errorf("failed to parse json config %s: %w", path, err)
		}
	}

	return c.applyFile(&fc)
}

func (c *Config) applyFile(fc *fileConfig) error {
	setString(&c.Addr, fc.Addr)
	setString(&c.Storage, fc.Storage)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.JWTSecret, fc.JWTSecret)
	setString(&c.SaltSecret, fc.SaltSecret)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)

	durations := []struct {
		dst  *time.Duration
		src  *string
		name string
	}{
		{&c.AccessTokenTTL, fc.AccessTokenTTL, "access_token_ttl"},
		{&c.RefreshTokenTTL, fc.RefreshTokenTTL, "refresh_token_ttl"},
		{&c.AuthRateWindow, fc.AuthRateWindow, "auth_rate_window"},
		{&c.TokenCleanupInterval, fc.TokenCleanupInterval, "token_cleanup_interval"},
		{&c.ShutdownTimeout, fc.ShutdownTimeout, "shutdown_timeout"},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}

	if fc.BcryptCost != nil {
		c.BcryptCost = *fc.BcryptCost
	}
	if fc.AuthRateLimit != nil {
		c.AuthRateLimit = *fc.AuthRateLimit
	}
	if fc.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.MetricsEnabled
	}

	return nil
}

func setString(dst, src *string) {
	if src != nil {
		*dst = *src
	}
}
