package notify

import (
	"context"

	"EnviroMonitorAPI/internal/logger"
	"EnviroMonitorAPI/internal/models"
)

// NotifyService is the delivery hook for push/email notification of alerts.
// It is deliberately not connected to the alert writer yet; delivery
// channels are owned by a separate system.
//
// TODO: wire Send into AlertService.RecordBreach once the delivery
// channels (email/push gateways) are provisioned.
type NotifyService struct {
	log *logger.Logger
}

func NewNotifyService(log *logger.Logger) *NotifyService {
	return &NotifyService{log: log}
}

// Send is a no-op placeholder.
func (s *NotifyService) Send(ctx context.Context, alert *models.Alert) error {
	s.log.Debug("NotifyService.Send called for alert %d (delivery not configured)", alert.ID)
	return nil
}
