package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the event
// stream. Delivery itself is synchronous with the publishing request; this
// worker only wires the subscriptions at startup.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification handlers registered")
}
