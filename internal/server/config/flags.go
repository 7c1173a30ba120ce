package config

import (
	"github.com/spf13/pflag"
)

// flagValues - значения флагов до применения.
// Флаги разбираются в отдельную структуру, чтобы значения по умолчанию
// не перетерли то, что пришло из файла и окружения.
type flagValues struct {
	configPath string
	cfg        Config
}

// newFlagSet описывает флаги сервера
func newFlagSet(defaults *Config) (*pflag.FlagSet, *flagValues) {
	fs := pflag.NewFlagSet("zkvault-server", pflag.ContinueOnError)
	fv := &flagValues{cfg: *defaults}

	fs.StringVarP(&fv.configPath, "config", "c", "", "path to JSON or YAML config file")
	fs.StringVarP(&fv.cfg.Addr, "addr", "a", defaults.Addr, "address and port to run server")
	fs.StringVar(&fv.cfg.Storage, "storage", defaults.Storage, "storage driver: sqlite or postgres")
	fs.StringVarP(&fv.cfg.DatabaseDSN, "dsn", "d", defaults.DatabaseDSN, "sqlite file path or postgres DSN")
	fs.StringVar(&fv.cfg.JWTSecret, "jwt-secret", "", "HMAC secret for access tokens")
	fs.StringVar(&fv.cfg.SaltSecret, "salt-secret", "", "HMAC secret for decoy salts")
	fs.StringVar(&fv.cfg.LogLevel, "log-level", defaults.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&fv.cfg.LogFormat, "log-format", defaults.LogFormat, "log format: text or json")
	fs.DurationVar(&fv.cfg.AccessTokenTTL, "access-ttl", defaults.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&fv.cfg.RefreshTokenTTL, "refresh-ttl", defaults.RefreshTokenTTL, "refresh token lifetime")
	fs.DurationVar(&fv.cfg.AuthRateWindow, "auth-rate-window", defaults.AuthRateWindow, "rate limit window for auth endpoints")
	fs.DurationVar(&fv.cfg.TokenCleanupInterval, "token-cleanup", defaults.TokenCleanupInterval, "expired refresh token cleanup period")
	fs.DurationVar(&fv.cfg.ShutdownTimeout, "shutdown-timeout", defaults.ShutdownTimeout, "graceful shutdown timeout")
	fs.IntVar(&fv.cfg.BcryptCost, "bcrypt-cost", defaults.BcryptCost, "bcrypt cost for auth secrets")
	fs.IntVar(&fv.cfg.AuthRateLimit, "auth-rate", defaults.AuthRateLimit, "auth requests per IP per window (0 disables)")
	fs.BoolVar(&fv.cfg.MetricsEnabled, "metrics", defaults.MetricsEnabled, "serve Prometheus metrics on /metrics")

	return fs, fv
}

// applyFlags копирует в cfg только флаги, заданные в командной строке
func applyFlags(fs *pflag.FlagSet, fv *flagValues, cfg *Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = fv.cfg.Addr
		case "storage":
			cfg.Storage = fv.cfg.Storage
		case "dsn":
			cfg.DatabaseDSN = fv.cfg.DatabaseDSN
		case "jwt-secret":
			cfg.JWTSecret = fv.cfg.JWTSecret
		case "salt-secret":
			cfg.SaltSecret = fv.cfg.SaltSecret
		case "log-level":
			cfg.LogLevel = fv.cfg.LogLevel
		case "log-format":
			cfg.LogFormat = fv.cfg.LogFormat
		case "access-ttl":
			cfg.AccessTokenTTL = fv.cfg.AccessTokenTTL
		case "refresh-ttl":
			cfg.RefreshTokenTTL = fv.cfg.RefreshTokenTTL
		case "auth-rate-window":
			cfg.AuthRateWindow = fv.cfg.AuthRateWindow
		case "token-cleanup":
			cfg.TokenCleanupInterval = fv.cfg.TokenCleanupInterval
		case "shutdown-timeout":
			cfg.ShutdownTimeout = fv.cfg.ShutdownTimeout
		case "bcrypt-cost":
			cfg.BcryptCost = fv.cfg.BcryptCost
		case "auth-rate":
			cfg.AuthRateLimit = fv.cfg.AuthRateLimit
		case "metrics":
			cfg.MetricsEnabled = fv.cfg.MetricsEnabled
		}
	})
}
