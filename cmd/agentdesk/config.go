package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify agentdesk configuration.

Without arguments, displays every key with its effective value.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the value in the user config file.

Configuration is stored at ~/.config/agentdesk/config.yaml
Project-specific overrides can be placed in .agentdesk.yaml
Environment variables override both, e.g. AGENTDESK_SERVER_ADDR.`,
	Args: cobra.MaximumNArgs(2),
	// Skip the root config load so a broken file can still be repaired.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.Default()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Set %s in %s\n", args[0], config.GetUserConfigPath())
			return nil
		}

		settings, err := config.Settings()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if !config.IsKey(args[0]) {
				return fmt.Errorf("%w: %s", config.ErrUnknownKey, args[0])
			}
			fmt.Println(displayValue(args[0], settings[args[0]]))
			return nil
		}

		if jsonOutput {
			out := make(map[string]any, len(settings))
			for k, v := range settings {
				out[k] = displayValue(k, v)
			}
			return printJSON(out)
		}
		for _, k := range config.Keys() {
			fmt.Printf("%s: %s\n", k, displayValue(k, settings[k]))
		}
		if p := config.GetProjectConfigPath(); p != "" {
			fmt.Fprintf(os.Stderr, "\nproject overrides: %s\n", p)
		}
		return nil
	},
}

// displayValue formats a setting, masking secrets.
func displayValue(key string, v any) string {
	s := fmt.Sprint(v)
	if config.IsSecret(key) {
		return config.MaskAPIKey(os.ExpandEnv(s))
	}
	return s
}
