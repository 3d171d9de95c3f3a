package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/config"
	"github.com/smokyabdulrahman/salah/internal/method"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  salah config set city Riyadh\n  salah config set country \"Saudi Arabia\"\n  salah config set method makkah\n  salah config set time_format 12h\n  salah config set prayers Fajr,Dhuhr,Asr,Maghrib,Isha\n  salah config set tahajjud_strategy middle",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective config value",
		Args:  cobra.ExactArgs(1),
		RunE:  runConfigGet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		RunE:  runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  runConfigPath,
	})

	return cmd
}

// runConfigShow displays the effective configuration (file, environment
// and defaults merged).
func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)

	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		shown := val
		if shown == "" {
			shown = "(not set)"
		}
		// Add the display name for the method.
		if key == "method" && val != "" {
			shown = formatMethodValue(val)
		}
		fmt.Fprintf(w, "  %-22s %s\n", key, shown)
	}
	return nil
}

// runConfigSet sets a config key in the file. Only the file's own values
// are rewritten; defaults and environment overrides are never persisted.
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return err
	}
	val, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}

// runConfigReset deletes the config file.
func runConfigReset(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := config.ResetAt(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

// runConfigPath prints the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// formatMethodValue adds the preset's display name to the configured value.
func formatMethodValue(val string) string {
	p, ok := method.Lookup(val)
	if !ok {
		return fmt.Sprintf("%s (unknown, using %s)", val, method.Default().Name)
	}
	return fmt.Sprintf("%s (%s)", val, p.Name)
}

func newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the table of supported calculation methods and their twilight angles.",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := method.All()
			if FlagJSON {
				return writeJSON(cmd.OutOrStdout(), all)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Supported calculation methods:")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %-22s %-6s %-10s %s\n", "Key", "Fajr", "Isha", "Name")
			fmt.Fprintf(w, "  %-22s %-6s %-10s %s\n", "───", "────", "────", "────")
			for _, m := range all {
				isha := fmt.Sprintf("%g°", m.IshaAngle)
				if m.IshaInterval > 0 {
					isha = fmt.Sprintf("+%d min", m.IshaInterval)
				}
				fmt.Fprintf(w, "  %-22s %-6s %-10s %s\n", m.Key, fmt.Sprintf("%g°", m.FajrAngle), isha, m.Name)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Use --method <key> to select a calculation method.")
			fmt.Fprintln(w, "Names are matched loosely (e.g. 'MWL', 'isna', 'Umm al-Qura').")
			fmt.Fprintf(w, "Unknown names fall back to %s.\n", method.Default().Name)
			return nil
		},
	}
}
