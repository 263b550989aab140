package worker

import (
	"context"

	"github.com/assetdesk/asset-service/internal/service"
)

// StartNotificationWorker registers notification handlers and drains the webhook outbox until ctx ends.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	go notificationService.Run(ctx)
}
