package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/zkvault/internal/client/iocli"
	"github.com/iudanet/zkvault/internal/client/ui"
	"github.com/iudanet/zkvault/internal/vault"
)

func (c *Cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps the vault unlocked until it idles out",
		Long: `Runs commands against one unlocked session. The vault locks itself
after the configured auto-lock delay without activity and asks for the
master password again on the next command that needs it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runShell(cmd.Context())
		},
	}
}

func (c *Cli) runShell(ctx context.Context) error {
	if err := c.ensureUnlocked(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.session.Run(ctx)
	}()

	// у терминала нет события потери фокуса; ближайшее - SIGHUP,
	// когда окно терминала закрыто или ssh отвалился
	background := make(chan os.Signal, 1)
	c.notifyBackground(background)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-background:
				c.session.Background()
				c.clip.ClearNow()
			}
		}
	}()

	c.inShell = true
	defer func() {
		signal.Stop(background)
		cancel()
		wg.Wait()
		c.inShell = false
		c.clip.ClearNow()
	}()

	c.io.Printf("Type %s for commands, %s to leave, %s to lock now.\n",
		ui.Code.Sprint("help"), ui.Code.Sprint("exit"), ui.Code.Sprint("lock"))

	for {
		wasUnlocked := c.session.State() == vault.StateUnlocked
		line, err := c.readLine(ctx, "zkvault> ")
		switch {
		case errors.Is(err, iocli.ErrNoInput), errors.Is(err, context.Canceled):
			c.io.Println()
			return nil
		case err != nil:
			return err
		}
		if wasUnlocked && c.session.State() == vault.StateLocked {
			c.io.Println(ui.Warning.Sprint("Vault was locked, the master password will be asked again"))
		}
		c.session.RecordActivity()

		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "lock":
			c.session.Lock()
			c.clip.ClearNow()
			c.io.Printf("%s Vault locked\n", ui.Success.Sprint("✓"))
			continue
		}

		root := c.NewRootCmd()
		root.SetArgs(args)
		if err := root.ExecuteContext(ctx); err != nil {
			c.io.Println(ui.Error.Sprint("Error:"), Describe(err))
		}

		// logout и delete-account завершают shell
		if c.session.State() == vault.StateAnonymous {
			return nil
		}
	}
}

// notifyHangup - источник события "приложение ушло в фон" для shell
func notifyHangup(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGHUP)
}

type lineResult struct {
	err  error
	line string
}

// readLine читает строку, не блокируя отмену ctx.
// Чтение, брошенное при отмене, не теряется: следующий вызов (например,
// повторный вход в shell) дожидается его же, так что читающая горутина
// на Cli всегда одна.
func (c *Cli) readLine(ctx context.Context, prompt string) (string, error) {
	if c.pendingLine == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := c.io.ReadInput(prompt)
			ch <- lineResult{line: line, err: err}
		}()
		c.pendingLine = ch
	}

	select {
	case r := <-c.pendingLine:
		c.pendingLine = nil
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
