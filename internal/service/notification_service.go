package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/assetdesk/asset-service/internal/config"
	"github.com/assetdesk/asset-service/internal/events"
)

const (
	webhookQueueSize = 256
	webhookTimeout   = 5 * time.Second
)

// WebhookPoster delivers one event to a webhook endpoint.
type WebhookPoster func(ctx context.Context, url string, event events.Event) error

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	outbox     chan events.Event
	post       WebhookPoster
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		outbox:     make(chan events.Event, webhookQueueSize),
		post:       postWebhook,
	}
}

// WithPoster replaces the webhook transport.
func (n *NotificationService) WithPoster(post WebhookPoster) *NotificationService {
	n.post = post
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAssetCreated, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventAssetDeployed, n.handleEmailAndWebhook)
	n.dispatcher.Subscribe(events.EventAssetReturned, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventTransferRequested, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventAssetTransferred, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventAssetRetired, n.handleEmailAndWebhook)
	n.dispatcher.Subscribe(events.EventAssetDisposed, n.handleEmailAndWebhook)
	n.dispatcher.Subscribe(events.EventAssetDepreciated, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventMaintenanceScheduled, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventMaintenanceCompleted, n.handleWebhookOnly)
	n.dispatcher.Subscribe(events.EventDeploymentOverdue, n.handleEmailAndWebhook)
}

// Run delivers queued webhooks until ctx is cancelled.
func (n *NotificationService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-n.outbox:
			n.deliver(ctx, event)
		}
	}
}

func (n *NotificationService) handleWebhookOnly(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("asset_id", event.AssetID), zap.Any("payload", event.Payload))
	n.enqueueWebhook(event)
	return nil
}

func (n *NotificationService) handleEmailAndWebhook(ctx context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("asset_id", event.AssetID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.enqueueWebhook(event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("asset_id", event.AssetID),
		zap.String("business_unit_id", event.BusinessUnitID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) enqueueWebhook(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	select {
	case n.outbox <- event:
	default:
		n.logger.Warn("webhook queue full, dropping event", zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))
	}
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()
	if err := n.post(ctx, n.cfg.WebhookURL, event); err != nil {
		n.logger.Warn("webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return
	}
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID))
}

func postWebhook(ctx context.Context, url string, event events.Event) error {
	timeout := webhookTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	agent := fiber.Post(url)
	agent.JSON(event)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return err
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errs[0]
	}
	if code >= fiber.StatusBadRequest {
		return fmt.Errorf("webhook responded %d: %s", code, strings.TrimSpace(string(body)))
	}
	return nil
}
