package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ambioctl/internal/alerts"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

const timeLayout = "2006-01-02 15:04:05"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(timeLayout)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return formatTime(*ts)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatViolation renders a violation like "temperature_max 9.4 > 8.0" so the
// breach direction is readable at a glance.
func formatViolation(a alerts.Alert) string {
	op := ">"
	if strings.HasSuffix(a.ViolationType, "_min") {
		op = "<"
	}
	return fmt.Sprintf("%s %.1f %s %.1f", a.ViolationType, a.ActualValue, op, a.ThresholdValue)
}

// RenderAlertsTable writes a table of alerts.
func RenderAlertsTable(w io.Writer, alertList []alerts.Alert) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Sensor", "Violation", "Source", "Status", "Notified", "Triggered", "Resolved"})
	for _, a := range alertList {
		t.AppendRow(table.Row{
			a.ID,
			a.Sensor.Name,
			formatViolation(a),
			a.ThresholdSource,
			a.Status,
			fmt.Sprintf("%d/%d", a.NotificationCount, alerts.MaxNotificationAttempts),
			formatTime(a.TriggeredAt),
			formatTimePtr(a.ResolvedAt),
		})
	}
	t.Render()
	return nil
}

// RenderNotificationsTable writes an alert's delivery history.
func RenderNotificationsTable(w io.Writer, notifications []alerts.Notification) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"Attempt", "Channel", "Recipient", "Status", "Sent At"})
	for _, n := range notifications {
		t.AppendRow(table.Row{
			n.AttemptNumber,
			n.Channel,
			n.Recipient,
			n.Status,
			formatTimePtr(n.SentAt),
		})
	}
	t.Render()
	return nil
}

// RenderStatisticsTable writes the aggregate alert counts.
func RenderStatisticsTable(w io.Writer, stats alerts.Statistics) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"Active", "Resolved", "Exhausted", "Total"})
	t.AppendRow(table.Row{stats.Active, stats.Resolved, stats.Exhausted, stats.Total})
	t.Render()
	return nil
}

func formatLastReading(r *platform.Reading) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f°C / %.1f%%", r.Temperature, r.Humidity)
}

// RenderSensorsTable writes a table of sensors.
func RenderSensorsTable(w io.Writer, sensors []platform.Sensor) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Serial", "Name", "Location", "Company", "Last Reading"})
	for _, s := range sensors {
		t.AppendRow(table.Row{
			s.ID,
			s.Serial,
			s.Name,
			orDash(s.Location),
			orDash(s.CompanyID),
			formatLastReading(s.LastReading),
		})
	}
	t.Render()
	return nil
}

func formatLimit(v *float64) string {
	if v == nil {
		return "default"
	}
	return fmt.Sprintf("%.1f", *v)
}

// RenderThresholdsTable writes a sensor's alert limits, marking unset ones as
// falling back to the system defaults.
func RenderThresholdsTable(w io.Writer, th platform.Thresholds) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"Limit", "Value"})
	t.AppendRow(table.Row{"Temperature Min", formatLimit(th.TemperatureMin)})
	t.AppendRow(table.Row{"Temperature Max", formatLimit(th.TemperatureMax)})
	t.AppendRow(table.Row{"Humidity Min", formatLimit(th.HumidityMin)})
	t.AppendRow(table.Row{"Humidity Max", formatLimit(th.HumidityMax)})
	t.Render()
	return nil
}

// RenderReadingsTable writes a table of measurements.
func RenderReadingsTable(w io.Writer, readings []platform.Reading) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"Recorded At", "Temperature", "Humidity"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Temperature", Align: text.AlignRight},
		{Name: "Humidity", Align: text.AlignRight},
	})
	for _, r := range readings {
		t.AppendRow(table.Row{
			formatTime(r.RecordedAt),
			fmt.Sprintf("%.1f°C", r.Temperature),
			fmt.Sprintf("%.1f%%", r.Humidity),
		})
	}
	t.Render()
	return nil
}

// RenderCompaniesTable writes a table of companies.
func RenderCompaniesTable(w io.Writer, companies []platform.Company) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Contact", "Active", "Created"})
	for _, c := range companies {
		t.AppendRow(table.Row{
			c.ID,
			c.Name,
			orDash(c.ContactEmail),
			c.Active,
			formatTime(c.CreatedAt),
		})
	}
	t.Render()
	return nil
}

// RenderUsersTable writes a table of user records.
func RenderUsersTable(w io.Writer, users []platform.UserRecord) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Type", "Company", "Active"})
	for _, u := range users {
		t.AppendRow(table.Row{
			u.ID,
			u.Name,
			u.Email,
			u.Role,
			u.UserType,
			orDash(u.CompanyID),
			u.Active,
		})
	}
	t.Render()
	return nil
}

// RenderProfileTable writes the current user's profile and what their role
// lets them do.
func RenderProfileTable(w io.Writer, user *session.User) error {
	caps := session.CapabilitiesFor(user)

	t := newTable(w)
	t.AppendRow(table.Row{"ID", user.ID})
	t.AppendRow(table.Row{"Name", user.Name})
	t.AppendRow(table.Row{"Email", user.Email})
	t.AppendRow(table.Row{"Role", user.Role})
	t.AppendRow(table.Row{"Type", user.UserType})
	t.AppendRow(table.Row{"Company", orDash(user.CompanyID)})
	t.AppendRow(table.Row{"Manage Companies", caps.CanManageCompanies})
	t.AppendRow(table.Row{"Manage Users", caps.CanManageUsers})
	t.AppendRow(table.Row{"Assign Sensors", caps.CanAssignSensors})
	t.AppendRow(table.Row{"Configure Thresholds", caps.CanConfigureThresholds})
	t.Render()
	return nil
}
