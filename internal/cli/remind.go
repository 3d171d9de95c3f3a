package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/salah/internal/config"
	"github.com/smokyabdulrahman/salah/internal/notify"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/reminder"
	"github.com/smokyabdulrahman/salah/internal/store"
	"github.com/smokyabdulrahman/salah/internal/tz"
)

var flagRemindDryRun bool

func newRemindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon",
		Long: "Book a notification before every selected prayer (lead_minutes ahead) and,\n" +
			"when tahajjud_enabled is set, the Tahajjud reminder. Notifications go to the\n" +
			"channels listed in 'notify' (desktop, log, mqtt). Runs until interrupted.",
		Args: cobra.NoArgs,
		RunE: runRemind,
	}

	cmd.Flags().BoolVar(&flagRemindDryRun, "dry-run", false, "Print the bookings and exit")

	return cmd
}

func runRemind(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n, closeNotifier, err := buildNotifier(s.cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	st, err := openStore(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	reg := reminder.NewRegistry(n, reminder.WithClock(nowFunc))

	rebook := make(chan struct{}, 1)
	alerts := &reminder.PrayerAlerts{
		Registry:    reg,
		Calc:        s.calc,
		Location:    s.loc,
		Method:      s.cfg.Method,
		Enabled:     notifiable(s.names),
		LeadMinutes: s.cfg.LeadMinutes,
		OnFire: func(reminder.Booking) {
			select {
			case rebook <- struct{}{}:
			default:
			}
		},
	}

	th := reminder.NewTahajjud(reg, st, s.calc, s.loc, s.cfg.TahajjudOptions())
	if err := syncTahajjud(ctx, th, s.cfg.TahajjudEnabled); err != nil {
		log.Error().Err(err).Msg("[remind] tahajjud reminder unavailable")
	}

	book := func() {
		bs, err := alerts.Reschedule(nowFunc())
		if err != nil {
			log.Error().Err(err).Msg("[remind] some prayer alerts were not booked")
		}
		log.Info().Int("alerts", len(bs)).Msg("[remind] prayer alerts booked")
	}
	book()

	if flagRemindDryRun {
		defer reg.CancelAll()
		w := cmd.OutOrStdout()
		zone, _ := tz.Zone(s.loc)
		for _, b := range reg.Pending() {
			fmt.Fprintf(w, "%-16s %s  %s\n", b.Key, b.At.In(zone).Format("2006-01-02 "+s.layout), b.Message.Body)
		}
		state, _ := th.State()
		fmt.Fprintf(w, "tahajjud: %s\n", state)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			reg.CancelAll()
			log.Info().Msg("[remind] stopped")
			return nil
		case <-rebook:
			book()
		case <-time.After(untilNextDay(nowFunc(), s)):
			// A new day may shift every time; rebook from scratch.
			book()
		}
	}
}

// syncTahajjud restores the persisted reminder state and reconciles it with
// the tahajjud_enabled setting.
func syncTahajjud(ctx context.Context, th *reminder.Tahajjud, enabled bool) error {
	if err := th.Restore(ctx); err != nil {
		return err
	}
	state, _ := th.State()
	switch {
	case enabled && state != reminder.Scheduled:
		return th.Enable(ctx)
	case !enabled && state != reminder.Disabled && state != reminder.Cancelled:
		return th.Disable(ctx)
	}
	return nil
}

// notifiable drops Sunrise and Sunset, which are never notified.
func notifiable(names []prayer.Name) []prayer.Name {
	out := make([]prayer.Name, 0, len(names))
	for _, n := range names {
		if n.IsPrayer() {
			out = append(out, n)
		}
	}
	return out
}

// untilNextDay returns the wait until just after the location's next midnight.
func untilNextDay(now time.Time, s *session) time.Duration {
	next := tz.DayStart(now, s.loc).AddDate(0, 0, 1).Add(time.Minute)
	return next.Sub(now)
}

// buildNotifier assembles the configured channels. The returned func
// releases any connections.
func buildNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	var (
		multi   notify.Multi
		closers []func()
	)
	for _, name := range cfg.Notifiers() {
		switch name {
		case "desktop":
			multi = append(multi, notify.Desktop{Icon: cfg.NotifyIcon, Sound: cfg.NotifySound})
		case "log":
			multi = append(multi, notify.Log{})
		case "mqtt":
			if cfg.MQTTBroker == "" {
				return nil, nil, errors.New("notify includes mqtt but mqtt_broker is not set")
			}
			m, client, err := notify.DialMQTT(cfg.MQTTBroker, fmt.Sprintf("salah-%d", os.Getpid()), cfg.MQTTTopic)
			if err != nil {
				return nil, nil, err
			}
			multi = append(multi, m)
			closers = append(closers, func() { client.Disconnect(250) })
		default:
			return nil, nil, fmt.Errorf("unknown notifier %q (want desktop, log or mqtt)", name)
		}
	}
	if len(multi) == 0 {
		multi = append(multi, notify.Log{})
	}

	return multi, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

// openStore opens the configured settings store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}
	return st, nil
}
