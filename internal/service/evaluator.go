package service

import (
	"fmt"
	"sync"

	"EnviroMonitorAPI/internal/models"
)

// Threshold bounds a sensor type. Nil Min or Max disables that side.
type Threshold struct {
	Min *float64
	Max *float64
}

// BreachDecision is the outcome of evaluating a reading that exceeded its
// configured bound.
type BreachDecision struct {
	SensorType     string
	Value          float64
	ThresholdValue float64
	Severity       string
	Message        string
}

// ThresholdEvaluator compares readings against per-sensor-type bounds and
// grades how far past the bound the reading landed.
type ThresholdEvaluator struct {
	thresholds map[string]Threshold
	mu         sync.RWMutex
}

func f64(v float64) *float64 { return &v }

// DefaultThresholds returns the built-in operating bounds per sensor type.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		models.SensorTemperature: {Min: f64(-20), Max: f64(35)},
		models.SensorHumidity:    {Min: f64(10), Max: f64(90)},
		models.SensorPressure:    {Min: f64(950), Max: f64(1060)},
		models.SensorAirQuality:  {Max: f64(150)},
		models.SensorWaterLevel:  {Max: f64(4.5)},
		models.SensorNoise:       {Max: f64(85)},
	}
}

func NewThresholdEvaluator(thresholds map[string]Threshold) *ThresholdEvaluator {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return &ThresholdEvaluator{thresholds: thresholds}
}

// Evaluate returns the breach decision for a reading, or ok=false when the
// reading is inside its bounds or the sensor type has no bounds configured.
func (e *ThresholdEvaluator) Evaluate(sensorType string, value float64) (*BreachDecision, bool) {
	e.mu.RLock()
	threshold, exists := e.thresholds[sensorType]
	e.mu.RUnlock()
	if !exists {
		return nil, false
	}

	var bound float64
	var overshoot float64
	switch {
	case threshold.Max != nil && value > *threshold.Max:
		bound = *threshold.Max
		overshoot = value - bound
	case threshold.Min != nil && value < *threshold.Min:
		bound = *threshold.Min
		overshoot = bound - value
	default:
		return nil, false
	}

	return &BreachDecision{
		SensorType:     sensorType,
		Value:          value,
		ThresholdValue: bound,
		Severity:       gradeSeverity(bound, overshoot),
		Message: fmt.Sprintf("Sensor %s reading %v exceeded threshold %v",
			sensorType, value, bound),
	}, true
}

// UpdateThreshold changes the bounds for a sensor type at runtime.
func (e *ThresholdEvaluator) UpdateThreshold(sensorType string, threshold Threshold) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.thresholds[sensorType] = threshold
}

// gradeSeverity picks a severity from how far past the bound the reading
// landed, relative to the bound's magnitude.
func gradeSeverity(bound, overshoot float64) string {
	scale := bound
	if scale < 0 {
		scale = -scale
	}
	if scale == 0 {
		scale = 1
	}

	ratio := overshoot / scale
	switch {
	case ratio >= 0.50:
		return models.SeverityCritical
	case ratio >= 0.25:
		return models.SeverityHigh
	case ratio >= 0.10:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
