package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iudanet/zkvault/internal/client/ui"
	"github.com/iudanet/zkvault/internal/generator"
	"github.com/iudanet/zkvault/internal/models"
	"github.com/iudanet/zkvault/internal/vault"
)

// itemFlags - поля записи из флагов add/edit
type itemFlags struct {
	title    string
	username string
	password string
	url      string
	notes    string
	category string
	length   int
	favorite bool
	generate bool
	prompt   bool
}

func (f *itemFlags) register(fs *pflag.FlagSet, edit bool) {
	fs.StringVar(&f.title, "title", "", "item title")
	fs.StringVar(&f.username, "username", "", "login or username")
	fs.StringVar(&f.password, "password", "", "password (prefer the prompt or --generate)")
	fs.StringVar(&f.url, "url", "", "site URL")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
	fs.StringVar(&f.category, "category", "", "category name or id")
	fs.BoolVar(&f.favorite, "favorite", false, "mark as favorite")
	fs.BoolVarP(&f.generate, "generate", "g", false, "generate a random password")
	fs.IntVar(&f.length, "length", generator.DefaultLength, "generated password length")
	if edit {
		fs.BoolVar(&f.prompt, "prompt-password", false, "enter a new password interactively")
	}
}

// newPassword возвращает пароль по флагам: сгенерированный, из флага или из prompt.
// ok=false - пароль не задан и менять его не нужно.
func (c *Cli) newPassword(fs *pflag.FlagSet, f *itemFlags, ask bool) (string, bool, error) {
	switch {
	case f.generate:
		pw, err := generator.Generate(f.length, generator.AllClasses())
		if err != nil {
			return "", false, err
		}
		return pw, true, nil
	case fs.Changed("password"):
		return f.password, true, nil
	case ask:
		pw, err := c.io.ReadPassword("Item password: ")
		if err != nil {
			return "", false, err
		}
		return pw, true, nil
	default:
		return "", false, nil
	}
}

func (c *Cli) addCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a credential to the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}

			password, _, err := c.newPassword(cmd.Flags(), &f, true)
			if err != nil {
				return err
			}
			categoryID, err := c.resolveCategory(ctx, f.category)
			if err != nil {
				return err
			}

			item, err := c.session.AddItem(ctx, vault.ItemInput{
				CategoryID: categoryID,
				Title:      f.title,
				IsFavorite: f.favorite,
				Payload: models.ItemPayload{
					Username: f.username,
					Password: password,
					URL:      f.url,
					Notes:    f.notes,
				},
			})
			if err != nil {
				return err
			}

			c.io.Printf("%s Added %s %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(item.Item.Title),
				ui.Muted.Sprint(item.Item.ID))
			if f.generate {
				c.io.Println("Generated password stored. Use " + ui.Code.Sprintf("zkvault copy %s", shortID(item.Item.ID)) + " to copy it.")
			}
			return nil
		},
	}
	f.register(cmd.Flags(), false)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *Cli) editCmd() *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			current, err := c.findItem(ctx, args[0])
			if err != nil {
				return err
			}

			fs := cmd.Flags()
			in := vault.ItemInput{
				CategoryID: current.Item.CategoryID,
				Title:      current.Item.Title,
				IsFavorite: current.Item.IsFavorite,
				Payload:    current.Payload,
			}
			if fs.Changed("title") {
				in.Title = f.title
			}
			if fs.Changed("username") {
				in.Payload.Username = f.username
			}
			if fs.Changed("url") {
				in.Payload.URL = f.url
			}
			if fs.Changed("notes") {
				in.Payload.Notes = f.notes
			}
			if fs.Changed("favorite") {
				in.IsFavorite = f.favorite
			}
			if fs.Changed("category") {
				// пустое значение снимает категорию
				if in.CategoryID, err = c.resolveCategory(ctx, f.category); err != nil {
					return err
				}
			}
			if pw, ok, err := c.newPassword(fs, &f, f.prompt); err != nil {
				return err
			} else if ok {
				in.Payload.Password = pw
			}

			updated, err := c.session.UpdateItem(ctx, current.Item.ID, in)
			if err != nil {
				return err
			}
			c.io.Printf("%s Updated %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(updated.Item.Title))
			return nil
		},
	}
	f.register(cmd.Flags(), true)
	return cmd
}

func (c *Cli) rmCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			item, err := c.findItem(ctx, args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := c.confirm(fmt.Sprintf("Remove %s?", ui.Highlight.Sprint(item.Item.Title)))
				if err != nil {
					return err
				}
				if !ok {
					c.io.Println("Cancelled")
					return nil
				}
			}
			if err := c.session.RemoveItem(ctx, item.Item.ID); err != nil {
				return err
			}
			c.io.Printf("%s Removed %s\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(item.Item.Title))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *Cli) listCmd() *cobra.Command {
	var (
		filter   vault.Filter
		category string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List items (passwords hidden)",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			if category != "" {
				id, err := c.resolveCategory(ctx, category)
				if err != nil {
					return err
				}
				filter.CategoryID = *id
			}

			items, err := c.session.Items(filter)
			if err != nil {
				return err
			}
			names, err := c.categoryNames(ctx)
			if err != nil {
				return err
			}
			views := make([]itemView, 0, len(items))
			for _, item := range items {
				views = append(views, newItemView(item, names, false))
			}
			return render(c.io, itemListTmpl, views)
		},
	}
	cmd.Flags().StringVarP(&filter.Query, "search", "s", "", "search title, username and URL")
	cmd.Flags().BoolVarP(&filter.FavoritesOnly, "favorites", "f", false, "only favorites")
	cmd.Flags().StringVar(&category, "category", "", "only items of this category (name or id)")
	return cmd
}

func (c *Cli) showCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:     "show <id>",
		Aliases: []string{"get"},
		Short:   "Show an item",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			item, err := c.findItem(ctx, args[0])
			if err != nil {
				return err
			}
			names, err := c.categoryNames(ctx)
			if err != nil {
				return err
			}
			return render(c.io, itemTmpl, newItemView(item, names, reveal))
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print the password in clear text")
	return cmd
}

func (c *Cli) favCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fav <id>",
		Short: "Toggle the favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.ensureUnlocked(ctx); err != nil {
				return err
			}
			item, err := c.findItem(ctx, args[0])
			if err != nil {
				return err
			}
			favorite, err := c.session.ToggleFavorite(ctx, item.Item.ID)
			if err != nil {
				return err
			}
			if favorite {
				c.io.Printf("%s %s added to favorites\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(item.Item.Title))
			} else {
				c.io.Printf("%s %s removed from favorites\n", ui.Success.Sprint("✓"), ui.Highlight.Sprint(item.Item.Title))
			}
			return nil
		},
	}
}

// findItem ищет запись по id или однозначному префиксу id
func (c *Cli) findItem(ctx context.Context, ref string) (*models.DecryptedItem, error) {
	item, err := c.session.Item(ctx, ref)
	if err == nil || !errors.Is(err, vault.ErrItemNotFound) {
		return item, err
	}

	all, err := c.session.Items(vault.Filter{})
	if err != nil {
		return nil, err
	}
	var found *models.DecryptedItem
	for _, candidate := range all {
		if !strings.HasPrefix(candidate.Item.ID, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("id prefix %s matches more than one item", ui.Highlight.Sprint(ref))
		}
		found = candidate
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", vault.ErrItemNotFound, ref)
	}
	return c.session.Item(ctx, found.Item.ID)
}
