package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/issue-service/internal/config"
	"github.com/spec-kit/issue-service/internal/events"
	"github.com/spec-kit/issue-service/internal/persistence"
)

// NotificationService forwards lifecycle events to subscribers over Redis
// pub/sub. Each event goes to the aggregate-wide channel and to a per-entity
// channel, so clients can watch everything or a single issue/user. Delivery
// failures are logged and swallowed: notification is fire-and-forget.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every event type in the taxonomy,
// including the kinds no workflow currently emits.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	issueEvents := []events.EventType{
		events.EventIssueCreated,
		events.EventIssueUpdated,
		events.EventIssueAssigned,
		events.EventIssueResolved,
		events.EventIssueClosed,
		events.EventIssueRejected,
		events.EventIssueDeleted,
	}
	userEvents := []events.EventType{
		events.EventUserCreated,
		events.EventUserProfileUpdated,
		events.EventUserUpdated,
		events.EventUserDeleted,
	}
	for _, eventType := range issueEvents {
		n.dispatcher.Subscribe(eventType, n.broadcast(n.cfg.IssueChannel))
	}
	for _, eventType := range userEvents {
		n.dispatcher.Subscribe(eventType, n.broadcast(n.cfg.UserChannel))
	}
}

func (n *NotificationService) broadcast(channel string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info("broadcasting event",
			zap.String("type", string(event.Type)),
			zap.Int64("entity_id", event.EntityID),
		)

		payload, err := json.Marshal(event)
		if err != nil {
			n.logger.Error("marshal event", zap.Error(err))
			return nil
		}

		if err := n.redis.Publish(ctx, channel, payload); err != nil {
			n.logger.Warn("publish event", zap.String("channel", channel), zap.Error(err))
		}
		entityChannel := fmt.Sprintf("%s.%d", channel, event.EntityID)
		if err := n.redis.Publish(ctx, entityChannel, payload); err != nil {
			n.logger.Warn("publish event", zap.String("channel", entityChannel), zap.Error(err))
		}
		return nil
	}
}
