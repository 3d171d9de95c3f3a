package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/display"
	"github.com/smokyabdulrahman/salah/internal/qibla"
)

func newQiblaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qibla",
		Short: "Show the Qibla direction",
		Long:  "Print the initial great-circle bearing from your location to the Kaaba, in degrees clockwise from true north.",
		Args:  cobra.NoArgs,
		RunE:  runQibla,
	}
}

type qiblaJSON struct {
	Location todayJSONLocation `json:"location"`
	Bearing  float64           `json:"bearing"`
	Compass  string            `json:"compass"`
}

func runQibla(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	bearing := qibla.Direction(s.loc)
	if FlagJSON {
		return writeJSON(cmd.OutOrStdout(), qiblaJSON{
			Location: locationJSON(s),
			Bearing:  bearing,
			Compass:  qibla.Compass(bearing),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Bold("Qibla"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", s.loc.Label())
	fmt.Fprintf(w, "  %s %s\n", display.Accent(fmt.Sprintf("%.2f°", bearing)), display.Gray(qibla.Compass(bearing)))
	fmt.Fprintln(w)
	return nil
}
