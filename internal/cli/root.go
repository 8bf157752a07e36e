/*
Package cli provides the contactctl commands.
*/
package cli

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	settingsFile string
	verbose      bool
	debug        bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "contactctl",
		Short: "Inspect the contact form mail pipeline",
		Long: `contactctl composes contact form messages without sending them and
checks the site settings the contact service will run with.

Example:
  contactctl preview --set email=ada@example.org --set name=Ada --set content=Hi
  contactctl preview --set form_variant=suggest_dataset --html
  contactctl check-settings --settings contact.yaml`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if opts.debug {
				log.SetLevel(log.DebugLevel)
			} else if opts.verbose {
				log.SetLevel(log.InfoLevel)
			} else {
				log.SetLevel(log.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.settingsFile, "settings", "s", envOr("CONTACT_SETTINGS_FILE", "contact.yaml"), "site settings file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug output")

	rootCmd.AddCommand(newPreviewCmd(opts))
	rootCmd.AddCommand(newCheckSettingsCmd(opts))

	return rootCmd
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
