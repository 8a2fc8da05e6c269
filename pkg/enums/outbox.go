package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInventoryItem OutboxAggregateType = "inventory_item"
	AggregateReservation   OutboxAggregateType = "reservation"
	AggregateOrder         OutboxAggregateType = "order"
	AggregateSagaExecution OutboxAggregateType = "saga_execution"
	AggregateLowStockAlert OutboxAggregateType = "low_stock_alert"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInventoryItem,
	AggregateReservation,
	AggregateOrder,
	AggregateSagaExecution,
	AggregateLowStockAlert,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInventoryReserved    OutboxEventType = "inventory.reserved"
	EventInventoryReleased    OutboxEventType = "inventory.released"
	EventInventoryFulfilled   OutboxEventType = "inventory.fulfilled"
	EventInventoryAdjusted    OutboxEventType = "inventory.adjusted"
	EventInventoryTransferred OutboxEventType = "inventory.transferred"
	EventInventoryLowStock    OutboxEventType = "inventory.low_stock"
	EventOrderStatusChanged   OutboxEventType = "order.status_changed"
	EventSagaCompleted        OutboxEventType = "saga.completed"
	EventSagaFailed           OutboxEventType = "saga.failed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInventoryReserved,
	EventInventoryReleased,
	EventInventoryFulfilled,
	EventInventoryAdjusted,
	EventInventoryTransferred,
	EventInventoryLowStock,
	EventOrderStatusChanged,
	EventSagaCompleted,
	EventSagaFailed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
