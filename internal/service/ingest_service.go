package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"
	"EnviroMonitorAPI/internal/repository"
)

// IngestService processes raw reading messages from the MQTT pipeline:
// parse, touch the station, evaluate against thresholds, and hand any
// breach to the alert writer.
type IngestService struct {
	evaluator    *ThresholdEvaluator
	alertService IAlertService
	stationRepo  repository.IStationRepository
	log          *logger.Logger
}

func NewIngestService(evaluator *ThresholdEvaluator, alertService IAlertService, stationRepo repository.IStationRepository, log *logger.Logger) *IngestService {
	return &IngestService{
		evaluator:    evaluator,
		alertService: alertService,
		stationRepo:  stationRepo,
		log:          log,
	}
}

// ProcessMessage handles one reading payload end to end. A store failure
// while recording a breach propagates so the MQTT layer can surface it;
// the broker redelivers on QoS 1.
func (s *IngestService) ProcessMessage(ctx context.Context, payload []byte) error {
	var msg models.ReadingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to parse reading message: %w", err)
	}
	if msg.StationID < 1 {
		return models.NewValidationError("station_id", "must be a positive integer")
	}
	if !models.ValidSensorTypes[msg.SensorType] {
		return models.NewValidationError("sensor_type", fmt.Sprintf("unknown sensor type %q", msg.SensorType))
	}

	if err := s.stationRepo.UpdateLastSeen(ctx, msg.StationID, time.Now()); err != nil {
		// A missed last_seen touch is not worth dropping the reading over.
		s.log.Warn("Failed to touch station %d last_seen: %v", msg.StationID, err)
	}

	decision, breached := s.evaluator.Evaluate(msg.SensorType, msg.Value)
	if !breached {
		return nil
	}

	s.log.Debug("Breach detected: station %d %s=%v (threshold %v, %s)",
		msg.StationID, msg.SensorType, msg.Value, decision.ThresholdValue, decision.Severity)

	_, err := s.alertService.RecordBreach(ctx, &models.BreachPayload{
		StationID:      msg.StationID,
		SensorID:       msg.SensorID,
		SensorType:     decision.SensorType,
		Value:          decision.Value,
		ThresholdValue: decision.ThresholdValue,
		Severity:       decision.Severity,
		Message:        decision.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to record breach for station %d: %w", msg.StationID, err)
	}

	return nil
}
