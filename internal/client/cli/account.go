package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/zkvault/internal/client/ui"
	"github.com/iudanet/zkvault/internal/generator"
	"github.com/iudanet/zkvault/internal/vault"
)

func (c *Cli) registerCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and an empty vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runRegister(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *Cli) runRegister(ctx context.Context, email string) error {
	email, err := c.readEmail(email)
	if err != nil {
		return err
	}

	var password, confirmation string
	if c.passwordFromFlags() {
		if password, err = c.getMasterPassword(""); err != nil {
			return err
		}
		confirmation = password
	} else {
		if password, err = c.io.ReadPassword("Master password: "); err != nil {
			return err
		}
		if confirmation, err = c.io.ReadPassword("Confirm master password: "); err != nil {
			return err
		}
	}

	_, cleanup := startSpinner("Creating account...")
	err = c.session.Register(ctx, email, password, confirmation)
	cleanup()
	if err != nil {
		return err
	}

	score := generator.EstimateStrength(password)
	c.io.Printf("%s Registered %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(email))
	c.io.Printf("Master password strength: %s %s\n", generator.StrengthLabel(score), ui.Muted.Sprintf("%d/100", score))
	c.io.Println(ui.Warning.Sprint("The master password cannot be recovered. Keep it safe."))
	return nil
}

func (c *Cli) loginCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and unlock the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runLogin(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *Cli) runLogin(ctx context.Context, email string) error {
	if c.session.State() != vault.StateAnonymous {
		return fmt.Errorf("%w as %s: run %s first", vault.ErrAlreadyAuthenticated,
			ui.Highlight.Sprint(c.session.Identity().Email), ui.Code.Sprint("zkvault logout"))
	}

	email, err := c.readEmail(email)
	if err != nil {
		return err
	}
	password, err := c.getMasterPassword("Master password: ")
	if err != nil {
		return err
	}

	_, cleanup := startSpinner("Signing in...")
	err = c.session.Login(ctx, email, password)
	cleanup()
	if err != nil {
		return err
	}
	c.io.Printf("%s Signed in as %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(email))

	return c.unlock(ctx, password)
}

func (c *Cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireAuthenticated(); err != nil {
				return err
			}
			err := c.session.Logout(cmd.Context())
			if err != nil {
				// локальное состояние уже очищено
				c.io.Println(ui.Warning.Sprintf("Server sign-out failed: %v", err))
			}
			c.io.Printf("%s Signed out\n", ui.Success.Sprint("✓"))
			return nil
		},
	}
}

func (c *Cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			c.runStatus()
			return nil
		},
	}
}

func (c *Cli) runStatus() {
	c.io.Println("=== Vault Status ===")
	c.io.Println()

	if c.opts.Offline {
		c.io.Printf("Mode:    offline %s\n", ui.Muted.Sprint(c.opts.DBPath))
	} else {
		c.io.Printf("Mode:    online %s\n", ui.Muted.Sprint(c.opts.Server))
	}

	state := c.session.State()
	c.io.Printf("State:   %s\n", state)
	if state == vault.StateAnonymous {
		c.io.Println()
		c.io.Printf("Run %s or %s to get started.\n", ui.Code.Sprint("zkvault register"), ui.Code.Sprint("zkvault login"))
		return
	}

	identity := c.session.Identity()
	c.io.Printf("Account: %s\n", ui.Highlight.Sprint(identity.Email))
	if !identity.ExpiresAt.IsZero() {
		remaining := time.Until(identity.ExpiresAt)
		if remaining > 0 {
			c.io.Printf("Token:   expires %s %s\n", identity.ExpiresAt.Format(time.RFC3339),
				ui.Muted.Sprintf("in %s", remaining.Round(time.Second)))
		} else {
			c.io.Println("Token:   expired, it will be refreshed on the next request")
		}
	}

	if state == vault.StateUnlocked {
		settings := c.session.Settings()
		c.io.Printf("Auto-lock:       %s\n", formatMinutes(settings.AutoLockMinutes))
		c.io.Printf("Clear clipboard: %s\n", formatSeconds(settings.ClearClipboardSeconds))
		c.io.Printf("Idle for:        %s\n", c.session.IdleFor())
	}
	if failed := c.session.FailedUnlocks(); failed > 0 {
		c.io.Println(ui.Warning.Sprintf("Failed unlock attempts: %d", failed))
	}
}

func (c *Cli) deleteAccountCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the account and every item in the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}

			email := c.session.Identity().Email
			if !yes {
				c.io.Println(ui.Warning.Sprint("This permanently deletes the account and all of its items."))
				typed, err := c.io.ReadInput(fmt.Sprintf("Type %s to confirm: ", ui.Highlight.Sprint(email)))
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(typed), email) {
					return errors.New("confirmation does not match, account kept")
				}
			}

			if err := c.session.DeleteAccount(ctx); err != nil {
				return err
			}
			c.io.Printf("%s Account %s deleted\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(email))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *Cli) readEmail(email string) (string, error) {
	if email != "" {
		return strings.TrimSpace(email), nil
	}
	input, err := c.io.ReadInput("Email: ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func formatMinutes(m int) string {
	if m == 0 {
		return "off"
	}
	return fmt.Sprintf("%d min", m)
}

func formatSeconds(s int) string {
	if s == 0 {
		return "off"
	}
	return fmt.Sprintf("%d s", s)
}
