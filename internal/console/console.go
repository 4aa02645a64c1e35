// Package console implements the interactive ambioctl shell: a readline
// REPL with history and tab completion over the alert, sensor, company and
// user views, plus a live alerts view that repolls every 30 seconds.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"ambioctl/internal/alerts"
	"ambioctl/internal/api"
	"ambioctl/internal/cli"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
	"ambioctl/internal/watch"
)

const prompt = "ambio> "

// Console is the interactive shell. It owns no network state of its own; all
// requests go through the shared session controller and resource clients.
type Console struct {
	session  *session.Controller
	alerts   *alerts.Client
	platform *platform.Client

	configDir string
	format    cli.OutputFormat
	out       io.Writer
	rl        *readline.Instance
}

// New creates a console bound to the given session and resource clients.
// configDir is where the command history file lives.
func New(sess *session.Controller, alertsClient *alerts.Client, platformClient *platform.Client, configDir string) *Console {
	return &Console{
		session:   sess,
		alerts:    alertsClient,
		platform:  platformClient,
		configDir: configDir,
		format:    cli.OutputFormatTable,
		out:       os.Stdout,
	}
}

// Run starts the read-eval-print loop and blocks until the user exits, the
// context is cancelled, or the session expires.
func (c *Console) Run(ctx context.Context) error {
	user := c.session.CheckAuth(ctx)
	if user == nil {
		return &cli.AuthRequiredError{}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       filepath.Join(c.configDir, "console_history"),
		AutoComplete:      c.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	c.rl = rl

	fmt.Fprintf(c.out, "Connected as %s (%s). Type 'help' for commands, TAB to complete.\n", user.Name, user.Email)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			fmt.Fprintln(c.out, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := c.execute(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(c.out, "Goodbye!")
				return nil
			}
			if errors.Is(err, api.ErrSessionExpired) {
				return err
			}
			fmt.Fprintln(c.out, "Error:", cli.UserMessage(err))
		}
	}
}

// errExit signals a clean user-requested exit from the loop.
var errExit = errors.New("exit")

func (c *Console) execute(ctx context.Context, input string) error {
	fields := strings.Fields(input)
	command, args := fields[0], fields[1:]

	switch command {
	case "help", "?":
		c.printHelp()
		return nil
	case "whoami":
		return c.cmdWhoami(ctx)
	case "alerts":
		return c.cmdAlerts(ctx, args)
	case "alert":
		return c.cmdAlert(ctx, args)
	case "notifications":
		return c.cmdNotifications(ctx, args)
	case "stats":
		return c.cmdStats(ctx)
	case "watch":
		return c.cmdWatch(ctx)
	case "sensors":
		return c.cmdSensors(ctx, args)
	case "sensor":
		return c.cmdSensor(ctx, args)
	case "readings":
		return c.cmdReadings(ctx, args)
	case "companies":
		return c.cmdCompanies(ctx)
	case "users":
		return c.cmdUsers(ctx, args)
	case "format":
		return c.cmdFormat(args)
	case "logout":
		c.session.Logout(ctx)
		return errExit
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command %q, type 'help' for the list", command)
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  whoami                     show the current user and permissions
  alerts [status]            list alerts, optionally active|resolved|exhausted
  alert <id>                 show one alert
  notifications <id>         show an alert's delivery attempts
  stats                      aggregate alert counts by status
  watch                      live alerts view, press Enter to stop
  sensors [unassigned]       list sensors
  sensor <id>                show one sensor with thresholds
  readings <sensor-id>       recent measurements for a sensor
  companies                  list companies
  users [company-id]         list users
  format <table|json|yaml>   change the output format
  logout                     end the session and exit
  exit                       leave the console
`)
}

func (c *Console) completer() readline.AutoCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("whoami"),
		readline.PcItem("alerts",
			readline.PcItem(alerts.StatusActive),
			readline.PcItem(alerts.StatusResolved),
			readline.PcItem(alerts.StatusExhausted),
		),
		readline.PcItem("alert"),
		readline.PcItem("notifications"),
		readline.PcItem("stats"),
		readline.PcItem("watch"),
		readline.PcItem("sensors", readline.PcItem("unassigned")),
		readline.PcItem("sensor"),
		readline.PcItem("readings"),
		readline.PcItem("companies"),
		readline.PcItem("users"),
		readline.PcItem("format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("yaml"),
		),
		readline.PcItem("logout"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

func (c *Console) cmdFormat(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: format <table|json|yaml>")
	}
	if err := cli.ValidateOutputFormat(args[0]); err != nil {
		return err
	}
	c.format = cli.OutputFormat(args[0])
	return nil
}

func (c *Console) cmdWhoami(ctx context.Context) error {
	user := c.session.CheckAuth(ctx)
	if user == nil {
		return &cli.AuthRequiredError{}
	}
	return cli.Render(c.out, c.format, user, func(w io.Writer) error {
		return cli.RenderProfileTable(w, user)
	})
}

func (c *Console) cmdAlerts(ctx context.Context, args []string) error {
	var filters alerts.Filters
	if len(args) > 0 {
		filters.Status = args[0]
	}

	page, err := c.alerts.List(ctx, filters)
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, page, func(w io.Writer) error {
		if err := cli.RenderAlertsTable(w, page.Alerts); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d of %d alerts\n", len(page.Alerts), page.Total)
		return nil
	})
}

func (c *Console) cmdAlert(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: alert <id>")
	}
	alert, err := c.alerts.Get(ctx, args[0])
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, alert, func(w io.Writer) error {
		return cli.RenderAlertsTable(w, []alerts.Alert{alert})
	})
}

func (c *Console) cmdNotifications(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: notifications <alert-id>")
	}
	notifications, err := c.alerts.Notifications(ctx, args[0])
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, notifications, func(w io.Writer) error {
		return cli.RenderNotificationsTable(w, notifications)
	})
}

func (c *Console) cmdStats(ctx context.Context) error {
	stats, err := c.alerts.Statistics(ctx, alerts.StatisticsFilters{})
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, stats, func(w io.Writer) error {
		return cli.RenderStatisticsTable(w, stats)
	})
}

// cmdWatch repolls active alerts on the standard interval until the user
// presses Enter. Poll errors are printed but do not stop the view; an expired
// session does.
func (c *Console) cmdWatch(ctx context.Context) error {
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	expired := make(chan struct{}, 1)
	poller := watch.New(alerts.PollInterval, func(pollCtx context.Context) {
		page, err := c.alerts.List(pollCtx, alerts.Filters{Status: alerts.StatusActive})
		if err != nil {
			if errors.Is(err, api.ErrSessionExpired) {
				select {
				case expired <- struct{}{}:
				default:
				}
				cancel()
				return
			}
			fmt.Fprintln(c.out, "poll failed:", cli.UserMessage(err))
			return
		}
		fmt.Fprintf(c.out, "\n-- %d active alerts --\n", page.Total)
		if err := cli.RenderAlertsTable(c.out, page.Alerts); err != nil {
			fmt.Fprintln(c.out, "render failed:", err)
		}
	})

	done := make(chan struct{})
	go func() {
		poller.Start(watchCtx)
		close(done)
	}()

	fmt.Fprintln(c.out, "Watching active alerts, press Enter to stop.")
	_, _ = c.rl.Readline()
	poller.Stop()
	<-done

	select {
	case <-expired:
		return api.ErrSessionExpired
	default:
		return nil
	}
}

func (c *Console) cmdSensors(ctx context.Context, args []string) error {
	var filters platform.SensorFilters
	if len(args) > 0 && args[0] == "unassigned" {
		filters.Unassigned = true
	}

	page, err := c.platform.ListSensors(ctx, filters)
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, page, func(w io.Writer) error {
		return cli.RenderSensorsTable(w, page.Sensors)
	})
}

func (c *Console) cmdSensor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sensor <id>")
	}
	sensor, err := c.platform.GetSensor(ctx, args[0])
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, sensor, func(w io.Writer) error {
		if err := cli.RenderSensorsTable(w, []platform.Sensor{sensor}); err != nil {
			return err
		}
		if sensor.Thresholds != nil {
			return cli.RenderThresholdsTable(w, *sensor.Thresholds)
		}
		return nil
	})
}

func (c *Console) cmdReadings(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: readings <sensor-id>")
	}
	page, err := c.platform.SensorReadings(ctx, args[0], platform.ReadingFilters{})
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, page, func(w io.Writer) error {
		return cli.RenderReadingsTable(w, page.Readings)
	})
}

func (c *Console) cmdCompanies(ctx context.Context) error {
	page, err := c.platform.ListCompanies(ctx, platform.CompanyFilters{})
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, page, func(w io.Writer) error {
		return cli.RenderCompaniesTable(w, page.Companies)
	})
}

func (c *Console) cmdUsers(ctx context.Context, args []string) error {
	var filters platform.UserFilters
	if len(args) > 0 {
		filters.CompanyID = args[0]
	}

	page, err := c.platform.ListUsers(ctx, filters)
	if err != nil {
		return err
	}
	return cli.Render(c.out, c.format, page, func(w io.Writer) error {
		return cli.RenderUsersTable(w, page.Users)
	})
}
