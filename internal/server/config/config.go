// Package config загружает настройки сервера.
//
// Порядок применения (каждый следующий перекрывает предыдущий):
// значения по умолчанию, файл из -c/--config (JSON или YAML),
// переменные окружения ZKVAULT_*, явно заданные флаги.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Драйверы хранилища
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// minSecretLen - минимальная длина секретов JWT и ложных солей
const minSecretLen = 32

// Config holds runtime settings for the zkvault server
type Config struct {
	Addr                 string        // адрес HTTP сервера
	Storage              string        // sqlite | postgres
	DatabaseDSN          string        // путь к файлу sqlite или DSN postgres
	JWTSecret            string        // ключ HS256 для access tokens
	SaltSecret           string        // ключ HMAC для ложных солей неизвестных email
	LogLevel             string        // debug | info | warn | error
	LogFormat            string        // text | json
	AccessTokenTTL       time.Duration // время жизни access token
	RefreshTokenTTL      time.Duration // время жизни refresh token
	AuthRateWindow       time.Duration // окно rate limit для /auth
	TokenCleanupInterval time.Duration // период удаления просроченных refresh tokens
	ShutdownTimeout      time.Duration // время на graceful shutdown
	BcryptCost           int           // cost для хеша auth secret
	AuthRateLimit        int           // запросов к /auth на IP за окно; 0 - без ограничения
	MetricsEnabled       bool          // отдавать /metrics
}

// ErrInvalidConfig - конфигурация не прошла проверку
var ErrInvalidConfig = errors.New("invalid config")

// LoadDefaults заполняет значения для локального запуска.
// Секреты по умолчанию пустые: их нужно задать явно.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.Storage = StorageSQLite
	c.DatabaseDSN = "zkvault.db"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.AccessTokenTTL = 15 * time.Minute
	c.RefreshTokenTTL = 30 * 24 * time.Hour
	c.AuthRateWindow = time.Minute
	c.TokenCleanupInterval = time.Hour
	c.ShutdownTimeout = 10 * time.Second
	c.BcryptCost = 10
	c.AuthRateLimit = 20
	c.MetricsEnabled = true
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Storage != StorageSQLite && c.Storage != StoragePostgres {
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d characters", minSecretLen))
	}
	if len(c.SaltSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("salt secret must be at least %d characters", minSecretLen))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token ttl must not be shorter than access token ttl"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("bcrypt cost must be between 4 and 31"))
	}
	if c.AuthRateLimit < 0 || (c.AuthRateLimit > 0 && c.AuthRateWindow <= 0) {
		errs = append(errs, errors.New("auth rate limit requires a positive window"))
	}
	if c.TokenCleanupInterval <= 0 || c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("intervals must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Load собирает конфигурацию из всех источников и проверяет ее
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs, fv := newFlagSet(cfg)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if fv.configPath != "" {
		if err := cfg.loadFile(fv.configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(getenv); err != nil {
		return nil, err
	}

	// флаги применяем последними, но только явно заданные
	applyFlags(fs, fv, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
