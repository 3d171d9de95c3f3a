package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, 7)
		},
	}
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 7)
		},
	}
}

func newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, nil, 30)
		},
	}
}

// maxDays bounds list and query ranges.
const maxDays = 366

// parseDays parses a day count, also accepting "week" and "month".
func parseDays(s string) (int, error) {
	switch strings.ToLower(s) {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxDays {
		return 0, fmt.Errorf("invalid number of days: %q (must be 1-%d, 'week' or 'month')", s, maxDays)
	}
	return n, nil
}

// runList is the handler for the list subcommand.
func runList(cmd *cobra.Command, args []string, defaultDays int) error {
	days := defaultDays
	if len(args) > 0 {
		n, err := parseDays(args[0])
		if err != nil {
			return err
		}
		days = n
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	if FlagJSON {
		out := listJSONOutput{Location: locationJSON(s)}
		for i := 0; i < days; i++ {
			d, day := s.day(i)
			out.Days = append(out.Days, listJSONDay{
				Date:    day.Date,
				Hijri:   day.Hijri,
				Timings: timingsJSON(day.Filter(s.names), d, s.layout),
			})
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("Prayer Times, %d Days", days)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintln(w)

	headers := []string{"Date", "Hijri"}
	for _, n := range s.names {
		headers = append(headers, string(n))
	}
	tbl := display.NewTable(headers)

	for i := 0; i < days; i++ {
		d, day := s.day(i)
		row := []string{d.Format("Mon 02 Jan"), day.Hijri}
		for _, p := range day.Filter(s.names) {
			row = append(row, prayer.OccurrenceForDate(p, d).In(d.Location()).Format(s.layout))
		}
		tbl.AddRow(row)
	}
	// Today is always the first row.
	tbl.SetHighlightRow(0)

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location todayJSONLocation `json:"location"`
	Days     []listJSONDay     `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Hijri   string            `json:"hijri"`
	Timings map[string]string `json:"timings"`
}
