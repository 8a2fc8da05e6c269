package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
)

// Order carries the two independent status axes owned by the state machine.
// Both fields change only through validated transitions.
type Order struct {
	ID                uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FinancialStatus   enums.OrderFinancialStatus   `gorm:"column:financial_status;type:order_financial_status;not null;default:'pending'"`
	FulfillmentStatus enums.OrderFulfillmentStatus `gorm:"column:fulfillment_status;type:order_fulfillment_status;not null;default:'unfulfilled'"`
	History           []OrderStatusHistory         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time                    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                    `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderStatusHistory is the append-only audit trail of status transitions.
// Rows are never rewritten.
type OrderStatusHistory struct {
	ID                  uuid.UUID                    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID             uuid.UUID                    `gorm:"column:order_id;type:uuid;not null;index"`
	PreviousFinancial   enums.OrderFinancialStatus   `gorm:"column:previous_financial;type:order_financial_status;not null"`
	NewFinancial        enums.OrderFinancialStatus   `gorm:"column:new_financial;type:order_financial_status;not null"`
	PreviousFulfillment enums.OrderFulfillmentStatus `gorm:"column:previous_fulfillment;type:order_fulfillment_status;not null"`
	NewFulfillment      enums.OrderFulfillmentStatus `gorm:"column:new_fulfillment;type:order_fulfillment_status;not null"`
	Comment             *string                      `gorm:"column:comment"`
	CreatedAt           time.Time                    `gorm:"column:created_at;autoCreateTime"`
}
