// internal/models/models.go

package models

import (
	"time"
)

// Sensor type enumeration
const (
	SensorTemperature = "TEMPERATURE"
	SensorHumidity    = "HUMIDITY"
	SensorPressure    = "PRESSURE"
	SensorAirQuality  = "AIR_QUALITY"
	SensorWaterLevel  = "WATER_LEVEL"
	SensorNoise       = "NOISE"
)

// Severity enumeration, ordered from least to most urgent
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// ValidSensorTypes holds the accepted sensor_type values.
var ValidSensorTypes = map[string]bool{
	SensorTemperature: true,
	SensorHumidity:    true,
	SensorPressure:    true,
	SensorAirQuality:  true,
	SensorWaterLevel:  true,
	SensorNoise:       true,
}

// ValidSeverities holds the accepted severity values.
var ValidSeverities = map[string]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

type Station struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Sensor struct {
	ID           int64     `json:"id" db:"id"`
	StationID    int64     `json:"station_id" db:"station_id"`
	SensorType   string    `json:"sensor_type" db:"sensor_type"`
	Name         string    `json:"name" db:"name"`
	SerialNumber string    `json:"serial_number" db:"serial_number"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Alert is the persistent record of a threshold breach. At most one active
// alert exists per (station_id, sensor_type, severity[, sensor_id]) tuple.
type Alert struct {
	ID             int64      `json:"id" db:"id"`
	StationID      int64      `json:"station_id" db:"station_id"`
	SensorID       *int64     `json:"sensor_id" db:"sensor_id"`
	SensorType     string     `json:"sensor_type" db:"sensor_type"`
	Value          float64    `json:"value" db:"value"`
	ThresholdValue float64    `json:"threshold_value" db:"threshold_value"`
	Severity       string     `json:"severity" db:"severity"`
	Message        string     `json:"message" db:"message"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	Acknowledged   bool       `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy *int64     `json:"acknowledged_by" db:"acknowledged_by"`
	AcknowledgedAt *time.Time `json:"acknowledged_at" db:"acknowledged_at"`
	ResolvedAt     *time.Time `json:"resolved_at" db:"resolved_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`

	// Display enrichment from the stations/sensors tables. Left empty when
	// the referenced station or sensor has been deleted.
	StationName      *string  `json:"station_name,omitempty"`
	StationLatitude  *float64 `json:"station_latitude,omitempty"`
	StationLongitude *float64 `json:"station_longitude,omitempty"`
	SensorName       *string  `json:"sensor_name,omitempty"`
	SensorSerial     *string  `json:"sensor_serial,omitempty"`
}

// BreachPayload is the already-evaluated breach decision handed to the
// alert writer by the ingestion pipeline.
type BreachPayload struct {
	StationID      int64   `json:"station_id"`
	SensorID       *int64  `json:"sensor_id"`
	SensorType     string  `json:"sensor_type"`
	Value          float64 `json:"value"`
	ThresholdValue float64 `json:"threshold_value"`
	Severity       string  `json:"severity"`
	Message        string  `json:"message"`
}

// AlertFilter narrows alert listings. Nil fields impose no constraint.
// From is inclusive, To is exclusive.
type AlertFilter struct {
	StationID  *int64
	SensorType *string
	Severity   *string
	IsActive   *bool
	From       *time.Time
	To         *time.Time
}

// PageRequest carries pagination and sort options. Page is 1-indexed.
type PageRequest struct {
	Page    int
	Limit   int
	SortAsc bool
}

type AlertPage struct {
	Items      []Alert `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// ReadingMessage is the wire format of a sensor reading arriving over MQTT.
type ReadingMessage struct {
	StationID  int64   `json:"station_id"`
	SensorID   *int64  `json:"sensor_id"`
	SensorType string  `json:"sensor_type"`
	Value      float64 `json:"value"`
	Timestamp  string  `json:"ts"`
}

type AcknowledgeRequest struct {
	ActorID int64 `json:"actor_id"`
}

type PurgeResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type SweepResponse struct {
	ResolvedCount int64 `json:"resolved_count"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  struct {
		Database bool `json:"database"`
		MQTT     bool `json:"mqtt"`
	} `json:"services"`
	Pool struct {
		OpenConnections int `json:"open_connections"`
		InUse           int `json:"in_use"`
		Idle            int `json:"idle"`
	} `json:"pool"`
}
