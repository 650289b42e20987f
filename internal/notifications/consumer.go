package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	"github.com/greenloop/greenloop-backend/pkg/logger"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
	"github.com/greenloop/greenloop-backend/pkg/outbox/idempotency"
	"github.com/greenloop/greenloop-backend/pkg/outbox/payloads"
)

const pickupEventsConsumer = "pickup-events-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches pickup lifecycle events and turns them into in-app notifications.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a pickup notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("pickup events subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, pickupEventsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEvent(logCtx, eventType, envelope.Data); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, pickupEventsConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handleEvent(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventPickupCreated:
		var payload payloads.PickupCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPickupCreated(ctx, payload)
	case enums.EventPickupAssigned:
		var payload payloads.PickupAssignedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPickupAssigned(ctx, payload)
	case enums.EventPickupStarted:
		var payload payloads.PickupStartedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPickupStarted(ctx, payload)
	case enums.EventPickupCompleted:
		var payload payloads.PickupCompletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPickupCompleted(ctx, payload)
	case enums.EventPickupCancelled:
		var payload payloads.PickupCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyPickupCancelled(ctx, payload)
	case enums.EventRewardsAccrued:
		var payload payloads.RewardsAccruedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyRewardsAccrued(ctx, payload)
	default:
		c.logg.Info(ctx, "event type not handled")
		return nil
	}
}

func (c *Consumer) notifyPickupCreated(ctx context.Context, payload payloads.PickupCreatedEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "Pickup request received",
		Message: fmt.Sprintf("Your %s pickup on %s is in the queue.", payload.WasteType, payload.PickupDate.Format("Jan 2")),
		Link:    pickupLink(payload.PickupID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer notified of pickup creation")
	return nil
}

func (c *Consumer) notifyPickupAssigned(ctx context.Context, payload payloads.PickupAssignedEvent) error {
	if payload.UserID == uuid.Nil || payload.DeliveryPartnerID == uuid.Nil {
		return fmt.Errorf("user or partner id missing")
	}
	customer := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "Partner assigned",
		Message: "A delivery partner has been assigned to your pickup.",
		Link:    pickupLink(payload.PickupID),
	}
	if err := c.repo.Create(ctx, customer); err != nil {
		return err
	}
	partner := &models.Notification{
		UserID:  payload.DeliveryPartnerID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "New pickup on your route",
		Message: fmt.Sprintf("Pickup added at stop %d of your route.", payload.RouteOrder),
		Link:    assignmentLink(payload.AssignmentID),
	}
	if err := c.repo.Create(ctx, partner); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer and partner notified of assignment")
	return nil
}

func (c *Consumer) notifyPickupStarted(ctx context.Context, payload payloads.PickupStartedEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "Pickup on the way",
		Message: "Your delivery partner is on the way to collect your pickup.",
		Link:    pickupLink(payload.PickupID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer notified of pickup start")
	return nil
}

func (c *Consumer) notifyPickupCompleted(ctx context.Context, payload payloads.PickupCompletedEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "Pickup completed",
		Message: fmt.Sprintf("Your %s pickup was collected. Weighed in at %.1f kg.", payload.WasteType, payload.ActualWeightKg),
		Link:    pickupLink(payload.PickupID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer notified of completion")
	return nil
}

func (c *Consumer) notifyPickupCancelled(ctx context.Context, payload payloads.PickupCancelledEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	message := "Your pickup was cancelled."
	if payload.Reason != "" {
		message = fmt.Sprintf("Your pickup was cancelled. Reason: %s", payload.Reason)
	}
	notification := &models.Notification{
		UserID:  payload.UserID,
		Type:    enums.NotificationTypePickupUpdate,
		Title:   "Pickup cancelled",
		Message: message,
		Link:    pickupLink(payload.PickupID),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer notified of cancellation")
	return nil
}

func (c *Consumer) notifyRewardsAccrued(ctx context.Context, payload payloads.RewardsAccruedEvent) error {
	if payload.UserID == uuid.Nil {
		return fmt.Errorf("user id missing")
	}
	notification := &models.Notification{
		UserID: payload.UserID,
		Type:   enums.NotificationTypeRewardsUpdate,
		Title:  "Points earned",
		Message: fmt.Sprintf("You earned %d points for recycling %.1f kg of %s. Total: %d points.",
			payload.PointsAwarded, payload.WeightKg, payload.WasteType, payload.TotalPoints),
		Link: stringPtr("/rewards"),
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}
	c.logg.Info(ctx, "customer notified of reward accrual")
	return nil
}

func pickupLink(pickupID uuid.UUID) *string {
	return stringPtr(fmt.Sprintf("/pickups/%s", pickupID))
}

func assignmentLink(assignmentID uuid.UUID) *string {
	return stringPtr(fmt.Sprintf("/partner/assignments/%s", assignmentID))
}

func stringPtr(value string) *string {
	return &value
}
