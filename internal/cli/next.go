package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

var (
	flagFormat   string
	flagPrayers  string
	flagProgress bool
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.\nThe output is a single line, suitable for tmux or other status bars.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.ModeFull, "Display format: "+strings.Join(prayer.Modes, ", ")+", or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")
	cmd.Flags().BoolVar(&flagProgress, "progress", false, "Append a progress bar for the time since the previous prayer")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	// Priority: --prayers flag > config > defaults.
	if cmd.Flags().Changed("prayers") && flagPrayers != "" {
		names, err := prayer.ParseNames(flagPrayers)
		if err != nil {
			return err
		}
		s.names = names
	}

	now := s.now.In(s.zone())
	next, at, ok := prayer.Upcoming(s.calc, s.loc, s.cfg.Method, s.names, now)
	if !ok {
		return fmt.Errorf("could not determine next prayer")
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), todayJSONNext{
			Prayer:    strings.ToLower(string(next.Name)),
			Time:      at.In(s.zone()).Format(s.layout),
			Remaining: prayer.FormatTimeRemaining(at.Sub(now)),
		})
	}

	out := prayer.FormatOutput(next, at.In(s.zone()), now, flagFormat, s.layout)
	if flagProgress {
		if w, ok := prayer.WindowAt(s.calc, s.loc, s.cfg.Method, s.names, now); ok {
			out += " " + display.ProgressBar(w.Progress(now), 10)
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
