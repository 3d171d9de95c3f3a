package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/server"
	"github.com/smokyabdulrahman/salah/internal/ui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live countdown to the next prayer",
		Long:  "Open a full-screen view of today's schedule with a live countdown and progress bar.\nPress t to toggle 12h/24h and q to quit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}
			return ui.Run(ui.Options{
				Calc:       s.calc,
				Location:   s.loc,
				Method:     s.cfg.Method,
				Prayers:    s.names,
				TimeFormat: s.layout,
			})
		},
	}
}

var flagAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve prayer times as a JSON API",
		Long: "Start an HTTP server exposing:\n" +
			"  GET /api/v1/schedule  the day's schedule (?date=YYYY-MM-DD)\n" +
			"  GET /api/v1/next      the next prayer and countdown\n" +
			"  GET /api/v1/qibla     the Qibla bearing\n" +
			"  GET /api/v1/tahajjud  tonight's night window\n" +
			"  GET /api/v1/methods   the calculation methods\n" +
			"Every endpoint accepts lat, lon, timezone and method query overrides.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides server_addr, default :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	addr := s.cfg.ServerAddr
	if flagAddr != "" {
		addr = flagAddr
	}
	if addr == "" {
		addr = ":8080"
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Calc:     s.calc,
		Location: s.loc,
		Method:   s.cfg.Method,
		Prayers:  s.names,
		Tahajjud: s.cfg.TahajjudOptions(),
	})
	return srv.Run(ctx, addr)
}
