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

func (c *Cli) copyCmd() *cobra.Command {
	var (
		field  string
		noWait bool
	)
	cmd := &cobra.Command{
		Use:   "copy <id>",
		Short: "Copy a field of an item to the clipboard",
		Long: `Copies the password (or another field) to the clipboard.
The clipboard is cleared after the configured clear-clipboard delay,
unless something else was copied in the meantime.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			item, err := c.findItem(ctx, args[0])
			if err != nil {
				return err
			}

			var value string
			switch field {
			case "password":
				value = item.Payload.Password
			case "username":
				value = item.Payload.Username
			case "url":
				value = item.Payload.URL
			default:
				return fmt.Errorf("%w: unknown field %q, use password, username or url", vault.ErrInputValidation, field)
			}
			if value == "" {
				return fmt.Errorf("%s of %s is empty", field, ui.Highlight.Sprint(item.Item.Title))
			}

			clearAfter := time.Duration(c.session.Settings().ClearClipboardSeconds) * time.Second
			if err := c.clip.Copy(value, clearAfter); err != nil {
				return err
			}

			if clearAfter == 0 {
				c.io.Printf("%s Copied %s of %s\n", ui.Success.Sprint("✓"), field, ui.Highlight.Sprint(item.Item.Title))
				return nil
			}
			c.io.Printf("%s Copied %s of %s %s\n", ui.Success.Sprint("✓"), field, ui.Highlight.Sprint(item.Item.Title),
				ui.Muted.Sprintf("clears in %s", clearAfter))

			// в shell таймер живет дальше; отдельный процесс ждет очистки
			if c.inShell || noWait {
				return nil
			}
			if err := c.clip.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "password", "field to copy: password, username or url")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "exit immediately, the clipboard is not cleared")
	return cmd
}

func (c *Cli) generateCmd() *cobra.Command {
	var (
		length                                    int
		noUpper, noLower, noDigits, noSymbols, cp bool
	)
	cmd := &cobra.Command{
		Use:         "generate",
		Short:       "Generate a random password",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSession: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			classes := generator.Classes{
				Upper:   !noUpper,
				Lower:   !noLower,
				Digits:  !noDigits,
				Symbols: !noSymbols,
			}
			password, err := generator.Generate(length, classes)
			if err != nil {
				return err
			}

			score := generator.EstimateStrength(password)
			if cp {
				if err := c.clip.Copy(password, 0); err != nil {
					return err
				}
				c.io.Printf("%s Password copied %s\n", ui.Success.Sprint("✓"),
					ui.Muted.Sprintf("%s, %d/100", generator.StrengthLabel(score), score))
				return nil
			}
			c.io.Println(password)
			c.io.Printf("Strength: %s %s\n", generator.StrengthLabel(score), ui.Muted.Sprintf("%d/100", score))
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVarP(&length, "length", "l", generator.DefaultLength,
		fmt.Sprintf("password length (%d-%d)", generator.MinLength, generator.MaxLength))
	fs.BoolVar(&noUpper, "no-upper", false, "exclude uppercase letters")
	fs.BoolVar(&noLower, "no-lower", false, "exclude lowercase letters")
	fs.BoolVar(&noDigits, "no-digits", false, "exclude digits")
	fs.BoolVar(&noSymbols, "no-symbols", false, "exclude symbols")
	fs.BoolVarP(&cp, "copy", "c", false, "copy to the clipboard instead of printing")
	return cmd
}

func (c *Cli) strengthCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "strength [password]",
		Short:       "Estimate password strength",
		Long:        "Scores a password from 0 to 100. Without an argument the password is read from the prompt.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipSession: "true"},
		RunE: func(_ *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				if password, err = c.io.ReadPassword("Password: "); err != nil {
					return err
				}
			}

			score := generator.EstimateStrength(password)
			label := generator.StrengthLabel(score)
			switch label {
			case "strong", "good":
				label = ui.Success.Sprint(label)
			case "fair":
				label = ui.Warning.Sprint(label)
			default:
				label = ui.Error.Sprint(label)
			}
			c.io.Printf("Strength: %s %s\n", label, ui.Muted.Sprintf("%d/100", score))
			return nil
		},
	}
}

func (c *Cli) settingsCmd() *cobra.Command {
	var autoLock, clearClipboard int
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change auto-lock and clipboard settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("auto-lock") {
				if err := c.session.SetAutoLockMinutes(ctx, autoLock); err != nil {
					return err
				}
			}
			if fs.Changed("clear-clipboard") {
				if err := c.session.SetClearClipboardSeconds(ctx, clearClipboard); err != nil {
					return err
				}
			}

			settings := c.session.Settings()
			c.io.Printf("Auto-lock:       %s\n", formatMinutes(settings.AutoLockMinutes))
			c.io.Printf("Clear clipboard: %s\n", formatSeconds(settings.ClearClipboardSeconds))
			return nil
		},
	}
	cmd.Flags().IntVar(&autoLock, "auto-lock", 0,
		fmt.Sprintf("lock after N idle minutes, 0 disables (max %d)", vault.MaxAutoLockMinutes))
	cmd.Flags().IntVar(&clearClipboard, "clear-clipboard", 0,
		fmt.Sprintf("clear the clipboard after N seconds, 0 disables (max %d)", vault.MaxClearClipboardSeconds))
	return cmd
}

func (c *Cli) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List categories",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			categories, err := c.session.Categories(ctx)
			if err != nil {
				return err
			}
			return render(c.io, categoryListTmpl, categories)
		},
	}

	var in vault.CategoryInput
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			in.Name = args[0]
			category, err := c.session.AddCategory(ctx, in)
			if err != nil {
				return err
			}
			c.io.Printf("%s Created category %s %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(category.Name),
				ui.Muted.Sprint(category.ID))
			return nil
		},
	}
	add.Flags().StringVar(&in.Icon, "icon", "", "icon")
	add.Flags().StringVar(&in.Color, "color", "", "color")
	add.Flags().IntVar(&in.SortOrder, "order", 0, "sort order")

	rm := &cobra.Command{
		Use:   "rm <name|id>",
		Short: "Remove a category, its items stay in the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			id, err := c.resolveCategory(ctx, args[0])
			if err != nil {
				return err
			}
			if err := c.session.RemoveCategory(ctx, *id); err != nil {
				return err
			}
			c.io.Printf("%s Removed category %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(args[0]))
			return nil
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

// ErrCategoryNotFound - категория не найдена ни по имени, ни по id
var ErrCategoryNotFound = errors.New("category not found")

// resolveCategory находит id категории по имени (без учета регистра) или id.
// Пустая строка - без категории.
func (c *Cli) resolveCategory(ctx context.Context, ref string) (*string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	categories, err := c.session.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		if category.ID == ref || strings.EqualFold(category.Name, ref) {
			id := category.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, ref)
}

func (c *Cli) categoryNames(ctx context.Context) (map[string]string, error) {
	categories, err := c.session.Categories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, category := range categories {
		names[category.ID] = category.Name
	}
	return names, nil
}
