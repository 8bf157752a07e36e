package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"go-contact-backend/config"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newCheckSettingsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-settings",
		Short: "Print the resolved site settings and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettings(root.settingsFile)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, key := range settings.Keys() {
				value := settings.Get(key, "")
				if strings.HasSuffix(key, "_secret") && value != "" {
					value = "********"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", key, config.EnvName(key), value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			problems := checkSettings(settings)
			for _, p := range problems {
				log.Error(p)
			}
			if len(problems) > 0 {
				return errors.New("settings check failed")
			}
			log.Info("Settings OK", "file", root.settingsFile)
			return nil
		},
	}
}

// checkSettings lists settings the service would run with but silently misuse.
func checkSettings(s *config.Settings) []string {
	var problems []string

	if s.Get(config.KeyMailTo, s.Get(config.KeyEmailTo, "")) == "" {
		problems = append(problems, fmt.Sprintf("no recipient: set %s or %s", config.KeyMailTo, config.KeyEmailTo))
	}

	if v := s.Get(config.KeyAddTimestampToSubject, ""); v != "" && s.Bool(config.KeyAddTimestampToSubject, false) != s.Bool(config.KeyAddTimestampToSubject, true) {
		problems = append(problems, fmt.Sprintf("%s: %q is not a boolean", config.KeyAddTimestampToSubject, v))
	}

	if v := s.Get(config.KeyRecaptchaScoreThreshold, ""); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f < 0 || f > 1 {
			problems = append(problems, fmt.Sprintf("%s: %q must be a number between 0 and 1", config.KeyRecaptchaScoreThreshold, v))
		}
	}

	if v := s.Get(config.KeyRecaptchaTimeout, ""); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err != nil || n <= 0 {
			problems = append(problems, fmt.Sprintf("%s: %q must be a positive number of seconds", config.KeyRecaptchaTimeout, v))
		}
	}

	if s.Get(config.KeyRecaptchaSecret, "") != "" && s.Get(config.KeyRecaptchaAction, "") == "" {
		problems = append(problems, fmt.Sprintf("%s is set but %s is empty", config.KeyRecaptchaSecret, config.KeyRecaptchaAction))
	}

	return problems
}
