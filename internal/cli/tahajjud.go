package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
)

var (
	flagTahajjudStrategy string
	flagTahajjudTime     string
)

func newTahajjudCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tahajjud",
		Short: "Show tonight's night window and Tahajjud reminder time",
		Long: "Show the night from Isha to the next Fajr, its middle and last third, and\n" +
			"when the Tahajjud reminder would fire. Configure the reminder with\n" +
			"'salah config set tahajjud_*' and run 'salah remind' to deliver it.",
		Args: cobra.NoArgs,
		RunE: runTahajjud,
	}

	cmd.Flags().StringVar(&flagTahajjudStrategy, "strategy", "", "lastThird, middle or custom (overrides config)")
	cmd.Flags().StringVar(&flagTahajjudTime, "time", "", "HH:MM used by the custom strategy (overrides config)")

	return cmd
}

type tahajjudJSON struct {
	Strategy   string `json:"strategy"`
	Method     string `json:"method"`
	Calculated bool   `json:"calculated"`
	Isha       string `json:"isha,omitempty"`
	Fajr       string `json:"fajr,omitempty"`
	Middle     string `json:"middle,omitempty"`
	LastThird  string `json:"last_third,omitempty"`
	Reminder   string `json:"reminder"`
	FireAt     string `json:"fire_at"`
}

func runTahajjud(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	opts := s.cfg.TahajjudOptions()
	if flagTahajjudStrategy != "" {
		st, ok := tahajjud.ParseStrategy(flagTahajjudStrategy)
		if !ok {
			return fmt.Errorf("unknown strategy %q (want lastThird, middle or custom)", flagTahajjudStrategy)
		}
		opts.Strategy = st
	}
	if flagTahajjudTime != "" {
		opts.CustomTime = flagTahajjudTime
	}
	if opts.Strategy == "" {
		opts.Strategy = tahajjud.LastThird
	}

	zone := s.zone()
	fireAt := tahajjud.FireTime(s.calc, s.loc, s.now, opts)
	out := tahajjudJSON{
		Strategy: string(opts.Strategy),
		Method:   method.Resolve(opts.Method).Name,
		Reminder: tahajjud.ReminderClock(s.calc, s.loc, s.now, opts),
		FireAt:   fireAt.In(zone).Format(time.RFC3339),
	}
	night, nightErr := tahajjud.Compute(s.calc, s.loc, s.now, opts.Method)
	if nightErr == nil {
		out.Calculated = true
		out.Isha = night.Isha.In(zone).Format(s.layout)
		out.Fajr = night.Fajr.In(zone).Format(s.layout)
		out.Middle = night.Middle().In(zone).Format(s.layout)
		out.LastThird = night.LastThird().In(zone).Format(s.layout)
	}

	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Tahajjud"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintf(w, "  %s\n", display.Gray(out.Method))
	fmt.Fprintln(w)
	if nightErr != nil {
		fmt.Fprintf(w, "  %s\n\n", display.Yellow("The night could not be computed; using the fallback time."))
	} else {
		fmt.Fprintf(w, "  %-11s %s\n", "Isha", out.Isha)
		fmt.Fprintf(w, "  %-11s %s\n", "Middle", out.Middle)
		fmt.Fprintf(w, "  %-11s %s\n", "Last third", out.LastThird)
		fmt.Fprintf(w, "  %-11s %s\n", "Fajr", out.Fajr)
		fmt.Fprintf(w, "  %-11s %s\n\n", "Night", prayer.FormatTimeRemaining(night.Duration()))
	}

	fmt.Fprintf(w, "  %s %s (%s), in %s\n",
		display.Accent("Reminder"),
		fireAt.In(zone).Format(s.layout),
		opts.Strategy,
		prayer.FormatTimeRemaining(fireAt.Sub(s.now)))
	if !s.cfg.TahajjudEnabled {
		fmt.Fprintf(w, "  %s\n", display.Dim("disabled; enable with 'salah config set tahajjud_enabled true'"))
	}
	fmt.Fprintln(w)
	return nil
}
