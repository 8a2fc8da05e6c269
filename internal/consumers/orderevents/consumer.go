package orderevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/internal/saga"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/google/uuid"
)

// Inbound event names produced by the order/checkout collaborator.
const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
	EventOrderFulfilled = "order.fulfilled"
)

// OrderCreatedPayload is the order.created event body.
type OrderCreatedPayload struct {
	OrderID   uuid.UUID        `json:"orderId"`
	LineItems []saga.OrderItem `json:"lineItems"`
}

// OrderRefPayload is the body of events that only reference an order.
type OrderRefPayload struct {
	OrderID uuid.UUID `json:"orderId"`
}

// Consumer dispatches inbound order lifecycle events to the fulfillment core.
type Consumer struct {
	sagas        saga.Orchestrator
	reservations reservations.Service
	orders       orders.Service
	logg         *logger.Logger
}

// NewConsumer builds the order events consumer.
func NewConsumer(sagas saga.Orchestrator, reservationSvc reservations.Service, orderSvc orders.Service, logg *logger.Logger) (*Consumer, error) {
	if sagas == nil {
		return nil, fmt.Errorf("saga orchestrator required")
	}
	if reservationSvc == nil {
		return nil, fmt.Errorf("reservations service required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		sagas:        sagas,
		reservations: reservationSvc,
		orders:       orderSvc,
		logg:         logg,
	}, nil
}

// Process handles one inbound event. Unknown event types are acknowledged and
// skipped so the subscription never wedges on foreign traffic.
func (c *Consumer) Process(ctx context.Context, eventType string, data []byte) error {
	logCtx := c.logg.WithField(ctx, "event_type", eventType)

	switch eventType {
	case EventOrderCreated:
		return c.handleOrderCreated(logCtx, data)
	case EventOrderCancelled:
		return c.handleOrderCancelled(logCtx, data)
	case EventOrderFulfilled:
		return c.handleOrderFulfilled(logCtx, data)
	default:
		c.logg.Info(logCtx, "event not handled by order events consumer")
		return nil
	}
}

func (c *Consumer) handleOrderCreated(ctx context.Context, data []byte) error {
	var payload OrderCreatedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.created: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order.created missing order id")
	}

	_, err := c.sagas.Execute(ctx, enums.SagaTypeOrderCreation, &saga.State{
		OrderID: payload.OrderID,
		Items:   payload.LineItems,
	})
	return err
}

func (c *Consumer) handleOrderCancelled(ctx context.Context, data []byte) error {
	var payload OrderRefPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.cancelled: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order.cancelled missing order id")
	}

	_, err := c.sagas.Execute(ctx, enums.SagaTypeOrderCancellation, &saga.State{
		OrderID: payload.OrderID,
	})
	return err
}

func (c *Consumer) handleOrderFulfilled(ctx context.Context, data []byte) error {
	var payload OrderRefPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode order.fulfilled: %w", err)
	}
	if payload.OrderID == uuid.Nil {
		return fmt.Errorf("order.fulfilled missing order id")
	}

	fulfilled, err := c.reservations.FulfillForOrder(ctx, payload.OrderID)
	if err != nil {
		return err
	}
	if fulfilled == 0 {
		c.logg.Info(c.logg.WithOrderID(ctx, payload.OrderID.String()), "order already fulfilled")
		return nil
	}

	status := enums.FulfillmentStatusFulfilled
	_, err = c.orders.ApplyTransition(ctx, orders.TransitionInput{
		OrderID:        payload.OrderID,
		NewFulfillment: &status,
	})
	return err
}
