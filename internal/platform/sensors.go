package platform

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"ambioctl/internal/api"
)

// Client is the typed surface over the platform's REST resources.
type Client struct {
	api *api.Client
}

// NewClient creates a platform client on top of the authenticated API client.
func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// SensorFilters narrow a sensor listing.
type SensorFilters struct {
	CompanyID string
	// Unassigned limits the listing to sensors not owned by any company.
	Unassigned bool
	Limit      int
	Offset     int
}

func (f SensorFilters) query() url.Values {
	q := url.Values{}
	if f.CompanyID != "" {
		q.Set("companyId", f.CompanyID)
	}
	if f.Unassigned {
		q.Set("unassigned", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// SensorPage is one page of sensors plus the total match count.
type SensorPage struct {
	Sensors []Sensor `json:"data"`
	Total   int      `json:"total"`
}

// ListSensors fetches a filtered page of sensors.
func (c *Client) ListSensors(ctx context.Context, filters SensorFilters) (SensorPage, error) {
	path := "/api/sensors"
	if q := filters.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page SensorPage
	if err := c.api.Get(ctx, path, &page); err != nil {
		return SensorPage{}, err
	}
	return page, nil
}

// GetSensor fetches a single sensor by id.
func (c *Client) GetSensor(ctx context.Context, id string) (Sensor, error) {
	var sensor Sensor
	if err := c.api.Get(ctx, "/api/sensors/"+url.PathEscape(id), &sensor); err != nil {
		return Sensor{}, err
	}
	return sensor, nil
}

// SensorInput carries the writable sensor fields.
type SensorInput struct {
	Serial   string `json:"serial,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

// CreateSensor registers a new sensor.
func (c *Client) CreateSensor(ctx context.Context, input SensorInput) (Sensor, error) {
	var sensor Sensor
	if err := c.api.Post(ctx, "/api/sensors", input, &sensor); err != nil {
		return Sensor{}, err
	}
	return sensor, nil
}

// UpdateSensor edits a sensor's writable fields.
func (c *Client) UpdateSensor(ctx context.Context, id string, input SensorInput) (Sensor, error) {
	var sensor Sensor
	if err := c.api.Put(ctx, "/api/sensors/"+url.PathEscape(id), input, &sensor); err != nil {
		return Sensor{}, err
	}
	return sensor, nil
}

// DeleteSensor removes a sensor.
func (c *Client) DeleteSensor(ctx context.Context, id string) error {
	return c.api.Delete(ctx, "/api/sensors/"+url.PathEscape(id), nil)
}

// AssignSensor gives an unowned sensor to a company.
func (c *Client) AssignSensor(ctx context.Context, sensorID, companyID string) (Sensor, error) {
	var sensor Sensor
	err := c.api.Put(ctx, "/api/sensors/"+url.PathEscape(sensorID)+"/assign", map[string]string{
		"companyId": companyID,
	}, &sensor)
	if err != nil {
		return Sensor{}, err
	}
	return sensor, nil
}

// SensorThresholds fetches a sensor's alert threshold configuration.
func (c *Client) SensorThresholds(ctx context.Context, sensorID string) (Thresholds, error) {
	var thresholds Thresholds
	err := c.api.Get(ctx, "/api/sensors/"+url.PathEscape(sensorID)+"/thresholds", &thresholds)
	if err != nil {
		return Thresholds{}, err
	}
	return thresholds, nil
}

// SetSensorThresholds replaces a sensor's alert threshold configuration.
// Nil limits revert to the system defaults.
func (c *Client) SetSensorThresholds(ctx context.Context, sensorID string, thresholds Thresholds) (Thresholds, error) {
	var updated Thresholds
	err := c.api.Put(ctx, "/api/sensors/"+url.PathEscape(sensorID)+"/thresholds", thresholds, &updated)
	if err != nil {
		return Thresholds{}, err
	}
	return updated, nil
}

// ReadingFilters narrow a reading listing to a time range.
type ReadingFilters struct {
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

func (f ReadingFilters) query() url.Values {
	q := url.Values{}
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

// ReadingPage is one page of readings plus the total match count.
type ReadingPage struct {
	Readings []Reading `json:"data"`
	Total    int       `json:"total"`
}

// SensorReadings fetches a sensor's measurement history.
func (c *Client) SensorReadings(ctx context.Context, sensorID string, filters ReadingFilters) (ReadingPage, error) {
	path := "/api/sensors/" + url.PathEscape(sensorID) + "/readings"
	if q := filters.query(); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page ReadingPage
	if err := c.api.Get(ctx, path, &page); err != nil {
		return ReadingPage{}, err
	}
	return page, nil
}

// LatestReading fetches a sensor's most recent measurement.
func (c *Client) LatestReading(ctx context.Context, sensorID string) (Reading, error) {
	var reading Reading
	err := c.api.Get(ctx, "/api/sensors/"+url.PathEscape(sensorID)+"/readings/latest", &reading)
	if err != nil {
		return Reading{}, err
	}
	return reading, nil
}
