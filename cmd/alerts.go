package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ambioctl/internal/alerts"
	"ambioctl/internal/api"
	"ambioctl/internal/cli"
	"ambioctl/internal/watch"
)

// parseDateFlag accepts either a date or a full RFC 3339 timestamp.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC 3339", value)
}

func newAlertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect threshold-violation alerts",
	}

	cmd.AddCommand(newAlertsListCmd())
	cmd.AddCommand(newAlertsGetCmd())
	cmd.AddCommand(newAlertsNotificationsCmd())
	cmd.AddCommand(newAlertsStatsCmd())
	return cmd
}

func newAlertsListCmd() *cobra.Command {
	var (
		companyID, sensorID, status, violation string
		from, to                               string
		limit, offset                          int
		watchMode                              bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, optionally filtered",
		Long: `Lists alerts matching the given filters. With --watch the listing
is re-queried every 30 seconds until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDateFlag(from)
			if err != nil {
				return err
			}
			endDate, err := parseDateFlag(to)
			if err != nil {
				return err
			}

			filters := alerts.Filters{
				CompanyID:     companyID,
				SensorID:      sensorID,
				Status:        status,
				ViolationType: violation,
				StartDate:     startDate,
				EndDate:       endDate,
				Limit:         limit,
				Offset:        offset,
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			if watchMode {
				return watchAlerts(cmd.Context(), cmd.OutOrStdout(), rt, filters)
			}

			page, err := rt.alerts.List(cmd.Context(), filters)
			if err != nil {
				return err
			}
			return renderAlertPage(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "filter by company id")
	cmd.Flags().StringVar(&sensorID, "sensor", "", "filter by sensor id")
	cmd.Flags().StringVar(&status, "status", "", "filter by status: active, resolved or exhausted")
	cmd.Flags().StringVar(&violation, "violation", "", "filter by violation type, e.g. temperature_max")
	cmd.Flags().StringVar(&from, "from", "", "only alerts triggered at or after this date")
	cmd.Flags().StringVar(&to, "to", "", "only alerts triggered at or before this date")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of alerts to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of alerts to skip")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-query every 30 seconds until interrupted")
	return cmd
}

func renderAlertPage(w io.Writer, page alerts.Page) error {
	return cli.Render(w, outputFormat(), page, func(w io.Writer) error {
		if err := cli.RenderAlertsTable(w, page.Alerts); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d of %d alerts\n", len(page.Alerts), page.Total)
		return nil
	})
}

// watchAlerts re-queries the listing on the standard poll interval until the
// user interrupts. Transient poll errors are reported and the loop keeps
// going; an expired session ends it.
func watchAlerts(ctx context.Context, w io.Writer, rt *runtime, filters alerts.Filters) error {
	watchCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var pollErr error
	poller := watch.New(alerts.PollInterval, func(pollCtx context.Context) {
		page, err := rt.alerts.List(pollCtx, filters)
		if err != nil {
			if errors.Is(err, api.ErrSessionExpired) {
				pollErr = err
				cancel()
				return
			}
			fmt.Fprintln(w, "poll failed:", cli.UserMessage(err))
			return
		}
		fmt.Fprintf(w, "\n-- %s --\n", time.Now().Format(time.TimeOnly))
		if err := renderAlertPage(w, page); err != nil {
			fmt.Fprintln(w, "render failed:", err)
		}
	})

	poller.Start(watchCtx)
	return pollErr
}

func newAlertsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			alert, err := rt.alerts.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), alert, func(w io.Writer) error {
				return cli.RenderAlertsTable(w, []alerts.Alert{alert})
			})
		},
	}
}

func newAlertsNotificationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notifications <alert-id>",
		Short: "Show an alert's notification delivery attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			notifications, err := rt.alerts.Notifications(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), notifications, func(w io.Writer) error {
				return cli.RenderNotificationsTable(w, notifications)
			})
		},
	}
}

func newAlertsStatsCmd() *cobra.Command {
	var (
		companyID, sensorID string
		from, to            string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate alert counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDateFlag(from)
			if err != nil {
				return err
			}
			endDate, err := parseDateFlag(to)
			if err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			stats, err := rt.alerts.Statistics(cmd.Context(), alerts.StatisticsFilters{
				CompanyID: companyID,
				SensorID:  sensorID,
				StartDate: startDate,
				EndDate:   endDate,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), stats, func(w io.Writer) error {
				return cli.RenderStatisticsTable(w, stats)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "scope to a company id")
	cmd.Flags().StringVar(&sensorID, "sensor", "", "scope to a sensor id")
	cmd.Flags().StringVar(&from, "from", "", "only alerts triggered at or after this date")
	cmd.Flags().StringVar(&to, "to", "", "only alerts triggered at or before this date")
	return cmd
}
