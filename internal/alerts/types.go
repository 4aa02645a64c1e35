// Package alerts provides typed, filterable read access to threshold-violation
// alerts, their notification delivery history, and aggregate counts.
//
// Alerts are created server-side when a sensor reading breaches a configured
// or default threshold. The client only ever reads their lifecycle; it never
// drives transitions.
package alerts

import "time"

// Alert statuses.
const (
	// StatusActive means the violating condition is ongoing.
	StatusActive = "active"
	// StatusResolved means the reading returned within bounds.
	StatusResolved = "resolved"
	// StatusExhausted means the notification budget was consumed without
	// the condition resolving. Terminal, like resolved.
	StatusExhausted = "exhausted"
)

// Violation types name which threshold a reading breached.
const (
	ViolationTemperatureMin = "temperature_min"
	ViolationTemperatureMax = "temperature_max"
	ViolationHumidityMin    = "humidity_min"
	ViolationHumidityMax    = "humidity_max"
)

// Threshold sources.
const (
	// ThresholdSourceSensorConfig means the breached limit came from the
	// sensor's own configuration.
	ThresholdSourceSensorConfig = "sensor_config"
	// ThresholdSourceSystemDefault means the system-wide default applied.
	ThresholdSourceSystemDefault = "system_default"
)

// Notification delivery statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// MaxNotificationAttempts is the server's notification retry budget per
// alert. An alert whose budget is consumed without resolution becomes
// exhausted.
const MaxNotificationAttempts = 3

// SensorRef identifies the sensor an alert belongs to.
type SensorRef struct {
	ID       string `json:"id"`
	Serial   string `json:"serial"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// Alert is one threshold violation.
//
// NotificationCount is monotonically non-decreasing and capped at
// MaxNotificationAttempts. A resolved alert always carries ResolvedAt with
// ResolvedAt >= TriggeredAt.
type Alert struct {
	ID                string     `json:"id"`
	Sensor            SensorRef  `json:"sensor"`
	ViolationType     string     `json:"violationType"`
	ActualValue       float64    `json:"actualValue"`
	ThresholdValue    float64    `json:"thresholdValue"`
	ThresholdSource   string     `json:"thresholdSource"`
	Status            string     `json:"status"`
	TriggeredAt       time.Time  `json:"triggeredAt"`
	ResolvedAt        *time.Time `json:"resolvedAt,omitempty"`
	NotificationCount int        `json:"notificationCount"`
}

// Notification is one delivery attempt for an alert. The history is
// append-only; attempt numbers are unique and increasing per alert.
type Notification struct {
	AlertID       string     `json:"alertId"`
	Channel       string     `json:"channel"`
	Recipient     string     `json:"recipient"`
	AttemptNumber int        `json:"attemptNumber"`
	Status        string     `json:"status"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
