package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
)

// InventoryReservation is a claim on committed stock tied to one order and one
// (variant, location). Status leaves active at most once.
type InventoryReservation struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID  uuid.UUID               `gorm:"column:variant_id;type:uuid;not null"`
	LocationID uuid.UUID               `gorm:"column:location_id;type:uuid;not null"`
	Qty        int                     `gorm:"column:qty;not null"`
	Status     enums.ReservationStatus `gorm:"column:status;type:reservation_status;not null;default:'active'"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
