package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks stock counts per (variant, location). Rows are created
// on first adjustment or reservation and never deleted, only zeroed.
type InventoryItem struct {
	VariantID         uuid.UUID `gorm:"column:variant_id;type:uuid;primaryKey"`
	LocationID        uuid.UUID `gorm:"column:location_id;type:uuid;primaryKey"`
	AvailableQty      int       `gorm:"column:available_qty;not null;default:0"`
	CommittedQty      int       `gorm:"column:committed_qty;not null;default:0"`
	IncomingQty       int       `gorm:"column:incoming_qty;not null;default:0"`
	LowStockThreshold *int      `gorm:"column:low_stock_threshold"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
