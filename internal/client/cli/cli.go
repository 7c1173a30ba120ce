// Package cli - командная строка zkvault поверх vault.Session.
//
// Каждый запуск CLI открывает локальный bbolt файл, восстанавливает
// сохраненную личность (Locked) и при необходимости спрашивает мастер-пароль.
// Ключ живет только в памяти процесса.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/iudanet/zkvault/internal/client/api"
	"github.com/iudanet/zkvault/internal/client/auth"
	"github.com/iudanet/zkvault/internal/client/clipboard"
	"github.com/iudanet/zkvault/internal/client/data"
	"github.com/iudanet/zkvault/internal/client/iocli"
	"github.com/iudanet/zkvault/internal/client/storage"
	"github.com/iudanet/zkvault/internal/client/storage/boltdb"
	"github.com/iudanet/zkvault/internal/client/ui"
	"github.com/iudanet/zkvault/internal/logger"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/vault"
)

// MasterPasswordEnv - переменная окружения с мастер-паролем
const MasterPasswordEnv = "ZKVAULT_MASTER_PASSWORD"

const (
	defaultServer = "http://localhost:8080"
	defaultDB     = "zkvault.db"
)

// Options - глобальные флаги
type Options struct {
	Server             string
	DBPath             string
	LogLevel           string
	MasterPasswordFile string
	Offline            bool
}

// restorer возвращает сохраненную личность; storage.ErrAuthNotFound - входа не было
type restorer interface {
	Restore(ctx context.Context) (*models.Identity, error)
}

// Cli держит открытую сессию между командами (важно для shell)
type Cli struct {
	io          iocli.IO
	getenv      func(string) string
	logOutput   io.Writer
	clipBackend clipboard.Backend

	logger  *slog.Logger
	db      *boltdb.Storage
	store   vault.RecordStore
	session *vault.Session
	clip    *clipboard.Manager

	sessionOpts []vault.Option
	opts        Options
	version     string
	bcryptCost  int
	inShell     bool

	// notifyBackground подписывает канал на сигналы ухода в фон
	notifyBackground func(chan<- os.Signal)
	// pendingLine - незавершенное чтение строки shell
	pendingLine chan lineResult
}

// Option настраивает Cli
type Option func(*Cli)

// WithEnv подменяет источник переменных окружения
func WithEnv(getenv func(string) string) Option {
	return func(c *Cli) { c.getenv = getenv }
}

// WithLogOutput задает поток для логов (по умолчанию stderr)
func WithLogOutput(w io.Writer) Option {
	return func(c *Cli) { c.logOutput = w }
}

// WithClipboard подменяет системный буфер обмена
func WithClipboard(backend clipboard.Backend) Option {
	return func(c *Cli) { c.clipBackend = backend }
}

// WithSessionOptions передает опции в vault.New
func WithSessionOptions(opts ...vault.Option) Option {
	return func(c *Cli) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// WithVersion задает строку для --version
func WithVersion(version string) Option {
	return func(c *Cli) { c.version = version }
}

// WithBcryptCost задает стоимость bcrypt для offline режима
func WithBcryptCost(cost int) Option {
	return func(c *Cli) { c.bcryptCost = cost }
}

// New создает CLI поверх IO
func New(stdio iocli.IO, opts ...Option) *Cli {
	c := &Cli{
		io:          stdio,
		getenv:      os.Getenv,
		logOutput:   os.Stderr,
		clipBackend: clipboard.System(),

		notifyBackground: notifyHangup,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.clip = clipboard.New(c.clipBackend)
	return c
}

// Execute разбирает args и выполняет команду.
// Ресурсы, открытые командой, закрываются перед возвратом.
func (c *Cli) Execute(ctx context.Context, args []string) error {
	defer c.Close()

	root := c.NewRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// open поднимает logger, bbolt, коллабораторов и сессию.
// Повторный вызов ничего не делает.
func (c *Cli) open(ctx context.Context) error {
	if c.session != nil {
		return nil
	}

	log, err := logger.New(c.opts.LogLevel, logger.FormatText, c.logOutput)
	if err != nil {
		return err
	}
	c.logger = log

	db, err := boltdb.New(ctx, c.opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	c.db = db

	var (
		idp   vault.IdentityProvider
		saved restorer
	)
	if c.opts.Offline {
		offline := auth.NewOffline(db, db, db, log, c.bcryptCost)
		c.store, idp, saved = db, offline, offline
	} else {
		client := api.NewClient(c.opts.Server, api.WithTokenObserver(auth.PersistTokens(db, log)))
		remote := auth.NewRemote(client, db, log)
		c.store, idp, saved = data.NewRemoteStore(client), remote, remote
	}

	c.session = vault.New(c.store, idp, log, c.sessionOpts...)

	identity, err := saved.Restore(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if err := c.session.Resume(identity); err != nil {
		return err
	}
	log.DebugContext(ctx, "session restored", slog.String("user_id", identity.UserID))
	return nil
}

// Close блокирует сессию и закрывает bbolt
func (c *Cli) Close() {
	if c.session != nil {
		c.session.Lock()
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close local storage", slog.Any("error", err))
		}
	}
	c.db, c.store, c.session = nil, nil, nil
}

// getMasterPassword ищет мастер-пароль по приоритету:
// 1. переменная окружения ZKVAULT_MASTER_PASSWORD
// 2. файл из --master-password-file
// 3. интерактивный ввод
func (c *Cli) getMasterPassword(prompt string) (string, error) {
	if envPassword := c.getenv(MasterPasswordEnv); envPassword != "" {
		return envPassword, nil
	}

	if c.opts.MasterPasswordFile != "" {
		content, err := os.ReadFile(c.opts.MasterPasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline
		password := strings.TrimRight(string(content), "\r\n")
		if password == "" {
			return "", errors.New("password file is empty")
		}
		return password, nil
	}

	return c.io.ReadPassword(prompt)
}

// passwordFromFlags - пароль задан не интерактивно
func (c *Cli) passwordFromFlags() bool {
	return c.getenv(MasterPasswordEnv) != "" || c.opts.MasterPasswordFile != ""
}

// requireAuthenticated проверяет, что есть вошедший пользователь
func (c *Cli) requireAuthenticated() error {
	if c.session.State() == vault.StateAnonymous {
		return fmt.Errorf("%w: run %s or %s first", vault.ErrNotAuthenticated,
			ui.Code.Sprint("zkvault login"), ui.Code.Sprint("zkvault register"))
	}
	return nil
}

// ensureUnlocked разблокирует хранилище, если оно заблокировано
func (c *Cli) ensureUnlocked(ctx context.Context) error {
	if err := c.requireAuthenticated(); err != nil {
		return err
	}
	if c.session.State() == vault.StateUnlocked {
		return nil
	}
	password, err := c.getMasterPassword("Master password: ")
	if err != nil {
		return err
	}
	return c.unlock(ctx, password)
}

func (c *Cli) unlock(ctx context.Context, password string) error {
	s, cleanup := startSpinner("Deriving key and decrypting vault...")
	defer cleanup()

	result, err := c.session.Unlock(ctx, password)
	if err != nil {
		s.FinalMSG = ui.Error.Sprint("✗") + " Unlock failed"
		return err
	}

	s.FinalMSG = fmt.Sprintf("%s Vault unlocked %s", ui.Success.Sprint("✓"),
		ui.Muted.Sprintf("%d item(s)", result.Items))
	if result.Skipped > 0 {
		s.FinalMSG += "\n" + ui.Warning.Sprintf("%d item(s) could not be decrypted and were skipped", result.Skipped)
	}
	// спиннер не запускался (не терминал) - печатаем итог сами
	if !s.Active() {
		c.io.Println(s.FinalMSG)
		s.FinalMSG = ""
	}
	return nil
}

// startSpinner показывает спиннер на время долгой операции (деривация ключа).
// Вне терминала спиннер не запускается.
func startSpinner(message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	// без цвета спиннер тоже работает
	_ = s.Color("cyan")
	s.Start()

	cleanup := func() {
		if s.FinalMSG != "" {
			s.FinalMSG = ui.EnsureNewline(s.FinalMSG)
		}
		s.Stop()
	}
	return s, cleanup
}

// confirm спрашивает подтверждение y/N
func (c *Cli) confirm(prompt string) (bool, error) {
	answer, err := c.io.ReadInput(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
