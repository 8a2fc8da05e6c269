package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
)

// InventoryAdjustment is the append-only audit record of every manual or
// transfer-driven change to available stock.
type InventoryAdjustment struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID  uuid.UUID              `gorm:"column:variant_id;type:uuid;not null;index"`
	LocationID uuid.UUID              `gorm:"column:location_id;type:uuid;not null;index"`
	Delta      int                    `gorm:"column:delta;not null"`
	Reason     enums.AdjustmentReason `gorm:"column:reason;type:adjustment_reason;not null"`
	Notes      *string                `gorm:"column:notes"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}
