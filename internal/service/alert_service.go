package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EnviroMonitorAPI/internal/config"
	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"
	"EnviroMonitorAPI/internal/repository"
	"EnviroMonitorAPI/internal/websocket"
)

// IAlertService defines the business logic for the alert lifecycle.
type IAlertService interface {
	RecordBreach(ctx context.Context, payload *models.BreachPayload) (*models.Alert, error)
	ListActive(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error)
	ListHistory(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error)
	Acknowledge(ctx context.Context, alertID, actorID int64) (*models.Alert, error)
	Resolve(ctx context.Context, alertID int64) (*models.Alert, error)
	Sweep(ctx context.Context) (int64, error)
	Purge(ctx context.Context, olderThan *time.Time, resolvedOnly *bool) (int64, error)
	GetStatistics(ctx context.Context) (map[string]int, error)
}

// AlertPublisher pushes alert events onto the message broker so downstream
// consumers besides the dashboard can follow the lifecycle.
type AlertPublisher interface {
	Publish(topic string, payload []byte) error
}

type AlertService struct {
	repo      repository.IAlertRepository
	hub       *websocket.Hub
	publisher AlertPublisher
	topic     string
	cfg       config.AlertsConfig
	log       *logger.Logger
}

func NewAlertService(repo repository.IAlertRepository, hub *websocket.Hub, cfg config.AlertsConfig, log *logger.Logger) *AlertService {
	return &AlertService{
		repo: repo,
		hub:  hub,
		cfg:  cfg,
		log:  log,
	}
}

// WithPublisher attaches a broker publisher for alert lifecycle events.
// Called after the broker connection is up; nil-safe to skip.
func (s *AlertService) WithPublisher(publisher AlertPublisher, topic string) {
	s.publisher = publisher
	s.topic = topic
}

// RecordBreach turns a breach decision into a created-or-refreshed alert.
// Safe to call on every breach detection; repeated breaches for the same
// (station, sensor type, severity) tuple refresh the existing active alert.
func (s *AlertService) RecordBreach(ctx context.Context, payload *models.BreachPayload) (*models.Alert, error) {
	if err := validateBreachPayload(payload); err != nil {
		return nil, err
	}

	alert, err := s.repo.RecordBreach(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to record breach: %w", err)
	}

	s.notify("ALERT", alert)
	if alert.Severity == models.SeverityCritical {
		s.log.Warn("[CRITICAL ALERT] station %d %s: %s",
			alert.StationID, alert.SensorType, alert.Message)
	}

	return alert, nil
}

// ListActive lists unresolved alerts. Any is_active value on the filter is
// overridden; the active listing excludes resolved alerts by construction.
func (s *AlertService) ListActive(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error) {
	active := true
	filter.IsActive = &active
	return s.list(ctx, filter, page)
}

// ListHistory lists all alerts, honoring an explicit is_active filter when
// the caller supplies one.
func (s *AlertService) ListHistory(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error) {
	return s.list(ctx, filter, page)
}

func (s *AlertService) list(ctx context.Context, filter models.AlertFilter, page models.PageRequest) (*models.AlertPage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = s.cfg.DefaultPageLimit
	}
	if page.Limit > s.cfg.MaxPageLimit {
		page.Limit = s.cfg.MaxPageLimit
	}
	offset := (page.Page - 1) * page.Limit

	alerts, total, err := s.repo.List(ctx, filter, page.Limit, offset, page.SortAsc)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}

	return &models.AlertPage{
		Items:      alerts,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}, nil
}

// Acknowledge marks an active alert as seen by an operator.
func (s *AlertService) Acknowledge(ctx context.Context, alertID, actorID int64) (*models.Alert, error) {
	if alertID < 1 {
		return nil, models.NewValidationError("alert_id", "must be a positive integer")
	}
	if actorID < 1 {
		return nil, models.NewValidationError("actor_id", "must be a positive integer")
	}

	alert, err := s.repo.Acknowledge(ctx, alertID, actorID)
	if err != nil {
		return nil, err
	}

	s.log.Info("Alert %d acknowledged by user %d", alertID, actorID)
	return alert, nil
}

// Resolve closes an alert manually. Idempotent in effect.
func (s *AlertService) Resolve(ctx context.Context, alertID int64) (*models.Alert, error) {
	if alertID < 1 {
		return nil, models.NewValidationError("alert_id", "must be a positive integer")
	}

	alert, err := s.repo.Resolve(ctx, alertID)
	if err != nil {
		return nil, err
	}

	s.notify("ALERT_RESOLVED", alert)
	s.log.Info("Alert %d resolved", alertID)
	return alert, nil
}

// Sweep auto-resolves active alerts older than the staleness window. The
// absence of a repeated breach within the window is taken to mean the
// condition cleared; the sweep does not re-check live readings.
func (s *AlertService) Sweep(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.cfg.StalenessWindow)

	count, err := s.repo.SweepStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep stale alerts: %w", err)
	}

	if count > 0 {
		s.log.Info("[SWEEP] Auto-resolved %d stale alerts (older than %s)", count, s.cfg.StalenessWindow)
	}
	return count, nil
}

// Purge permanently deletes alert history. At least one of olderThan or
// resolvedOnly must be supplied; deleting the whole table requires the
// caller to say so explicitly.
func (s *AlertService) Purge(ctx context.Context, olderThan *time.Time, resolvedOnly *bool) (int64, error) {
	if olderThan == nil && resolvedOnly == nil {
		return 0, models.NewValidationError("filter", "purge requires older_than and/or resolved_only")
	}

	count, err := s.repo.Purge(ctx, olderThan, resolvedOnly)
	if err != nil {
		return 0, fmt.Errorf("failed to purge alert history: %w", err)
	}

	if count > 0 {
		s.log.Info("[PURGE] Removed %d alerts from history", count)
	}
	return count, nil
}

// GetStatistics returns the count of active alerts grouped by severity.
func (s *AlertService) GetStatistics(ctx context.Context) (map[string]int, error) {
	return s.repo.CountActiveBySeverity(ctx)
}

// notify pushes the alert to connected dashboard clients via the hub and,
// when a publisher is attached, onto the broker's alerts topic. Delivery is
// best-effort; a publish failure never fails the lifecycle operation.
func (s *AlertService) notify(event string, alert *models.Alert) {
	if s.hub != nil {
		s.hub.Broadcast(event, alert)
	}
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(websocket.Event{Type: event, Payload: alert})
	if err != nil {
		s.log.Error("Failed to encode %s event for alert %d: %v", event, alert.ID, err)
		return
	}
	if err := s.publisher.Publish(s.topic, payload); err != nil {
		s.log.Warn("Failed to publish %s event for alert %d: %v", event, alert.ID, err)
	}
}

func validateBreachPayload(payload *models.BreachPayload) error {
	if payload == nil {
		return models.NewValidationError("payload", "missing breach payload")
	}
	if payload.StationID < 1 {
		return models.NewValidationError("station_id", "must be a positive integer")
	}
	if payload.SensorID != nil && *payload.SensorID < 1 {
		return models.NewValidationError("sensor_id", "must be a positive integer when present")
	}
	if !models.ValidSensorTypes[payload.SensorType] {
		return models.NewValidationError("sensor_type", fmt.Sprintf("unknown sensor type %q", payload.SensorType))
	}
	if !models.ValidSeverities[payload.Severity] {
		return models.NewValidationError("severity", fmt.Sprintf("unknown severity %q", payload.Severity))
	}
	return nil
}

func validateFilter(filter models.AlertFilter) error {
	if filter.SensorType != nil && !models.ValidSensorTypes[*filter.SensorType] {
		return models.NewValidationError("sensor_type", fmt.Sprintf("unknown sensor type %q", *filter.SensorType))
	}
	if filter.Severity != nil && !models.ValidSeverities[*filter.Severity] {
		return models.NewValidationError("severity", fmt.Sprintf("unknown severity %q", *filter.Severity))
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return models.NewValidationError("to", "must not be before from")
	}
	return nil
}
