package alerts

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"ambioctl/internal/api"
)

// PollInterval is how often live alert views re-query the server. List and
// statistics queries tolerate this much staleness.
const PollInterval = 30 * time.Second

// Client is the typed query surface over the alert endpoints.
type Client struct {
	api *api.Client
}

// NewClient creates an alert client on top of the authenticated API client.
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// Filters narrow an alert listing. All fields are optional and combined
// with AND.
type Filters struct {
	CompanyID     string
	SensorID      string
	Status        string
	ViolationType string
	StartDate     time.Time
	EndDate       time.Time
	Limit         int
	Offset        int
}

// query encodes the filters as URL query parameters, omitting unset fields.
func (f Filters) query() url.Values {
	q := url.Values{}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	if f.SensorID != "" {
		q.Set("sensorId", f.SensorID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.ViolationType != "" {
		q.Set("violationType", f.ViolationType)
	}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// Page is one page of an alert listing plus the total match count for
// pagination.
type Page struct {
	Alerts []Alert `json:"data"`
	Total  int     `json:"total"`
}

// List fetches a filtered page of alerts.
func (c *Client) List(ctx context.Context, filters Filters) (Page, error) {
	path := "/api/alerts"
	if q := filters.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page Page
	if err := c.api.Get(ctx, path, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// Get fetches a single alert by id. A missing alert surfaces as an error
// matching api.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (Alert, error) {
	var alert Alert
	if err := c.api.Get(ctx, "/api/alerts/"+url.PathEscape(id), &alert); err != nil {
		return Alert{}, err
	}
	return alert, nil
}

// Notifications fetches the delivery history for one alert, ordered by
// attempt number ascending. The sort is applied client-side as well in case
// the server returns rows in insertion order.
func (c *Client) Notifications(ctx context.Context, alertID string) ([]Notification, error) {
	var resp struct {
		Data []Notification `json:"data"`
	}
	err := c.api.Get(ctx, "/api/alerts/"+url.PathEscape(alertID)+"/notifications", &resp)
	if err != nil {
		return nil, err
	}

	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].AttemptNumber < resp.Data[j].AttemptNumber
	})
	return resp.Data, nil
}

// StatisticsFilters scope an aggregate query. Status and violation type do
// not apply here; the result is always broken down by status.
type StatisticsFilters struct {
	CompanyID string
	SensorID  string
	StartDate time.Time
	EndDate   time.Time
}

func (f StatisticsFilters) query() url.Values {
	q := url.Values{}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	if f.SensorID != "" {
		q.Set("sensorId", f.SensorID)
	}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format(time.RFC3339))
	}
	return q
}

// Statistics are per-status alert totals.
type Statistics struct {
	Active    int64 `json:"active"`
	Resolved  int64 `json:"resolved"`
	Exhausted int64 `json:"exhausted"`
	Total     int64 `json:"total"`
}

// statisticsRow is one aggregate row as returned by the server. Count is
// decoded loosely because servers have been observed returning it as either
// a JSON number or a string.
type statisticsRow struct {
	Status string `json:"status"`
	Count  any    `json:"count"`
}

// Statistics fetches aggregate counts and folds the rows into per-status
// totals. Rows with an unrecognized status contribute to Total but to no
// named bucket; missing or non-numeric counts contribute zero.
func (c *Client) Statistics(ctx context.Context, filters StatisticsFilters) (Statistics, error) {
	path := "/api/alerts/statistics"
	if q := filters.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Data []statisticsRow `json:"data"`
	}
	if err := c.api.Get(ctx, path, &resp); err != nil {
		return Statistics{}, err
	}

	return aggregateStatistics(resp.Data), nil
}

// aggregateStatistics sums rows into per-status totals.
func aggregateStatistics(rows []statisticsRow) Statistics {
	var stats Statistics
	for _, row := range rows {
		count := countValue(row.Count)
		stats.Total += count
		switch row.Status {
		case StatusActive:
			stats.Active += count
		case StatusResolved:
			stats.Resolved += count
		case StatusExhausted:
			stats.Exhausted += count
		}
	}
	return stats
}

// countValue coerces a loosely-typed count to an integer. Anything that is
// not a usable number counts as zero, never an error.
func countValue(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return int64(parsed)
	case int:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// String summarizes the statistics for log lines and the console status bar.
func (s Statistics) String() string {
	return fmt.Sprintf("%d active / %d resolved / %d exhausted (%d total)",
		s.Active, s.Resolved, s.Exhausted, s.Total)
}
