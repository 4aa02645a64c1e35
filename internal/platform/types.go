// Package platform covers the conventional resource endpoints of the Ambio
// API: sensors and their readings, companies, and user records. These are
// plain {data, total} REST resources consumed through the authenticated
// client.
package platform

import "time"

// Sensor is one environmental sensor, possibly unowned.
type Sensor struct {
	ID          string      `json:"id"`
	Serial      string      `json:"serial"`
	Name        string      `json:"name"`
	Location    string      `json:"location,omitempty"`
	CompanyID   string      `json:"companyId,omitempty"`
	Thresholds  *Thresholds `json:"thresholds,omitempty"`
	LastReading *Reading    `json:"lastReading,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Thresholds is the per-sensor alert configuration. Nil limits fall back to
// the system defaults server-side.
type Thresholds struct {
	TemperatureMin *float64 `json:"temperatureMin,omitempty"`
	TemperatureMax *float64 `json:"temperatureMax,omitempty"`
	HumidityMin    *float64 `json:"humidityMin,omitempty"`
	HumidityMax    *float64 `json:"humidityMax,omitempty"`
}

// Reading is one temperature/humidity measurement.
type Reading struct {
	SensorID    string    `json:"sensorId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// Company is a tenant organization owning sensors and users.
type Company struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	Address      string    `json:"address,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRecord is a user as seen through the administration endpoints, as
// opposed to the session's own profile.
type UserRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	UserType  string    `json:"userType"`
	CompanyID string    `json:"companyId,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}
