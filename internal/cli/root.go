package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/salah/internal/config"
	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/logging"
)

// Global flags shared across all subcommands.
var (
	FlagConfig     string
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagTimezone   string
	FlagMethod     string
	FlagProvider   string
	FlagLocale     string
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLogLevel   string
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the salah CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "salah",
		Short:   "Islamic prayer times, Qibla and Tahajjud reminders",
		Long:    "Computes the daily prayer schedule locally from solar astronomy (or the Al Adhan API),\nwith countdowns, Qibla direction, reminders and a JSON API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadWithEnv(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg

			level := cfg.LogLevel
			if flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "log-level") {
				level = FlagLogLevel
			}
			logging.Setup(level, cmd.ErrOrStderr())

			if FlagJSON {
				display.SetEnabled(false)
			}
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagConfig, "config", "", "Config file (default: ~/.config/salah/config.json)")
	pf.StringVar(&FlagCity, "city", "", "Override city (takes precedence over config)")
	pf.StringVar(&FlagCountry, "country", "", "Override country")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.StringVar(&FlagTimezone, "timezone", "", "IANA timezone of the location, e.g. Europe/London")
	pf.StringVar(&FlagMethod, "method", "", "Calculation method, e.g. mwl, isna, egypt, makkah (see 'salah methods')")
	pf.StringVar(&FlagProvider, "provider", "", "Time source: local or aladhan")
	pf.StringVar(&FlagLocale, "locale", "", "Hijri date locale: en or ar")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/salah/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Register subcommands.
	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newWeekCmd())
	rootCmd.AddCommand(newMonthCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newQiblaCmd())
	rootCmd.AddCommand(newTahajjudCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRemindCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// configPath returns --config or the default location.
func configPath() (string, error) {
	if FlagConfig != "" {
		return FlagConfig, nil
	}
	return config.Path()
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > environment > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	cfg := loadedConfig
	if cfg == nil {
		defaults := config.Defaults()
		cfg = &defaults
	}
	defaults := config.Defaults()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "timezone") {
		cfg.Timezone = FlagTimezone
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = FlagMethod
	} else if cfg.Method == "" {
		cfg.Method = defaults.Method
	}
	if flagWasSet(flags, root, "provider") {
		cfg.Provider = FlagProvider
	} else if cfg.Provider == "" {
		cfg.Provider = defaults.Provider
	}
	if flagWasSet(flags, root, "locale") {
		cfg.Locale = FlagLocale
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}

	// Time format: CLI flag > config > default ("24h").
	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}

	return cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// timeLayout converts the time_format setting to a Go layout.
func timeLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}
