package payloads

import (
	"time"

	"github.com/google/uuid"
)

// InventoryReservedEvent is published when stock moves from available to committed.
type InventoryReservedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	ReservationID uuid.UUID `json:"reservationId"`
	VariantID     uuid.UUID `json:"variantId"`
	LocationID    uuid.UUID `json:"locationId"`
	Qty           int       `json:"qty"`
}

// InventoryReleasedEvent is published when a reservation returns to available.
type InventoryReleasedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	ReservationID uuid.UUID `json:"reservationId"`
	VariantID     uuid.UUID `json:"variantId"`
	LocationID    uuid.UUID `json:"locationId"`
	Qty           int       `json:"qty"`
}

// InventoryFulfilledEvent is published when committed stock leaves permanently.
type InventoryFulfilledEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	ReservationID uuid.UUID `json:"reservationId"`
	VariantID     uuid.UUID `json:"variantId"`
	LocationID    uuid.UUID `json:"locationId"`
	Qty           int       `json:"qty"`
}

// InventoryAdjustedEvent is published on any manual available-quantity delta.
type InventoryAdjustedEvent struct {
	VariantID    uuid.UUID `json:"variantId"`
	LocationID   uuid.UUID `json:"locationId"`
	Delta        int       `json:"delta"`
	Reason       string    `json:"reason"`
	AvailableQty int       `json:"availableQty"`
}

// InventoryTransferredEvent is published when stock moves between locations.
type InventoryTransferredEvent struct {
	VariantID      uuid.UUID `json:"variantId"`
	FromLocationID uuid.UUID `json:"fromLocationId"`
	ToLocationID   uuid.UUID `json:"toLocationId"`
	Qty            int       `json:"qty"`
}

// InventoryLowStockEvent is published when available falls to or below threshold.
type InventoryLowStockEvent struct {
	AlertID      uuid.UUID `json:"alertId"`
	VariantID    uuid.UUID `json:"variantId"`
	LocationID   uuid.UUID `json:"locationId"`
	AvailableQty int       `json:"availableQty"`
	Threshold    int       `json:"threshold"`
	TriggeredAt  time.Time `json:"triggeredAt"`
}

// OrderStatusChangedEvent mirrors every applied state-machine transition.
type OrderStatusChangedEvent struct {
	OrderID             uuid.UUID `json:"orderId"`
	PreviousFinancial   string    `json:"previousFinancial"`
	NewFinancial        string    `json:"newFinancial"`
	PreviousFulfillment string    `json:"previousFulfillment"`
	NewFulfillment      string    `json:"newFulfillment"`
	Comment             *string   `json:"comment,omitempty"`
}

// SagaCompletedEvent is published when every step of a saga finished.
type SagaCompletedEvent struct {
	SagaID   uuid.UUID `json:"sagaId"`
	SagaType string    `json:"sagaType"`
	OrderID  uuid.UUID `json:"orderId"`
}

// SagaFailedEvent is published after compensation, carrying the step that broke.
type SagaFailedEvent struct {
	SagaID     uuid.UUID `json:"sagaId"`
	SagaType   string    `json:"sagaType"`
	OrderID    uuid.UUID `json:"orderId"`
	FailedStep string    `json:"failedStep"`
	Error      string    `json:"error"`
}
