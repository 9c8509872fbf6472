package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/service"
)

// StartNotificationWorker registers notification handlers on the event bus.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		logger.Warn("notification worker not started: no service")
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker registered")
}
