package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/prayer"
)

var flagQueryDays string

func newQueryCmd() *cobra.Command {
	names := make([]string, len(prayer.Order))
	for i, n := range prayer.Order {
		names[i] = string(n)
	}

	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query a specific prayer time for today, or across multiple days with --days.\n\nValid prayer names: " + strings.Join(names, ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().StringVar(&flagQueryDays, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, ok := prayer.ParseName(args[0])
	if !ok {
		return fmt.Errorf("unknown prayer %q; valid names: %v", args[0], prayer.Order)
	}

	days := 1
	if flagQueryDays != "" {
		n, err := parseDays(flagQueryDays)
		if err != nil {
			return fmt.Errorf("invalid --days value: %w", err)
		}
		days = n
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	rows := make([]queryJSONDay, 0, days)
	for i := 0; i < days; i++ {
		d, day := s.day(i)
		row := queryJSONDay{Date: day.Date, Hijri: day.Hijri, label: d.Format("Mon 02 Jan")}
		if p, ok := day.Get(name); ok {
			row.Time = prayer.OccurrenceForDate(p, d).In(d.Location()).Format(s.layout)
		}
		rows = append(rows, row)
	}

	w := cmd.OutOrStdout()

	// Single day: one plain line.
	if days == 1 {
		if FlagJSON {
			return writeJSON(w, queryJSONSingle{
				Prayer: strings.ToLower(string(name)),
				Time:   rows[0].Time,
				Date:   rows[0].Date,
				Hijri:  rows[0].Hijri,
			})
		}
		fmt.Fprintf(w, "%s %s\n", name, rows[0].Time)
		return nil
	}

	if FlagJSON {
		return writeJSON(w, queryJSONMulti{
			Location: locationJSON(s),
			Prayer:   strings.ToLower(string(name)),
			Days:     rows,
		})
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold(fmt.Sprintf("%s Times, %d Days", name, days)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintln(w)

	tbl := display.NewTable([]string{"Date", string(name)})
	for _, r := range rows {
		tbl.AddRow([]string{r.label, r.Time})
	}
	tbl.SetHighlightRow(0)

	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

type queryJSONSingle struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
	Date   string `json:"date"`
	Hijri  string `json:"hijri"`
}

type queryJSONMulti struct {
	Location todayJSONLocation `json:"location"`
	Prayer   string            `json:"prayer"`
	Days     []queryJSONDay    `json:"days"`
}

type queryJSONDay struct {
	Date  string `json:"date"`
	Hijri string `json:"hijri"`
	Time  string `json:"time"`

	label string
}
