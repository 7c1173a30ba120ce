package cli

import (
	"github.com/spf13/cobra"
)

// skipSession - аннотация команд, которым не нужны bbolt и сессия
const skipSession = "zkvault/skip-session"

// NewRootCmd собирает дерево команд. Флаги пишутся в c.opts.
func (c *Cli) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zkvault",
		Short: "Zero-knowledge credential vault",
		Long: `zkvault keeps credentials encrypted with a key derived from your master password.
The server and the local database only ever see ciphertext.`,
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSession] == "true" {
				return nil
			}
			return c.open(cmd.Context())
		},
	}
	root.SetOut(c.io)
	root.SetErr(c.io)

	// в shell дерево строится на каждую строку: текущие значения становятся умолчаниями
	def := c.opts
	if def.Server == "" {
		def.Server = defaultServer
	}
	if def.DBPath == "" {
		def.DBPath = defaultDB
	}
	if def.LogLevel == "" {
		def.LogLevel = "warn"
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.Server, "server", def.Server, "vault server URL")
	flags.StringVar(&c.opts.DBPath, "db", def.DBPath, "local database file")
	flags.BoolVar(&c.opts.Offline, "offline", def.Offline, "keep the whole vault in the local database")
	flags.StringVar(&c.opts.LogLevel, "log-level", def.LogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&c.opts.MasterPasswordFile, "master-password-file", def.MasterPasswordFile,
		"read the master password from a file (env "+MasterPasswordEnv+" takes priority)")

	root.AddCommand(
		c.registerCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.deleteAccountCmd(),
		c.addCmd(),
		c.editCmd(),
		c.rmCmd(),
		c.listCmd(),
		c.showCmd(),
		c.favCmd(),
		c.copyCmd(),
		c.generateCmd(),
		c.strengthCmd(),
		c.settingsCmd(),
		c.categoryCmd(),
		c.exportCmd(),
	)
	if !c.inShell {
		root.AddCommand(c.shellCmd())
	}
	return root
}
