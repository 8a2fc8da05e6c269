package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
)

// LowStockAlert is a derived signal over inventory counters. At most one
// active alert exists per (variant, location).
type LowStockAlert struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID    uuid.UUID         `gorm:"column:variant_id;type:uuid;not null;index:idx_low_stock_alerts_pair"`
	LocationID   uuid.UUID         `gorm:"column:location_id;type:uuid;not null;index:idx_low_stock_alerts_pair"`
	Status       enums.AlertStatus `gorm:"column:status;type:alert_status;not null;default:'active'"`
	TriggeredQty int               `gorm:"column:triggered_qty;not null"`
	Threshold    int               `gorm:"column:threshold;not null"`
	ResolvedAt   *time.Time        `gorm:"column:resolved_at"`
	DismissedAt  *time.Time        `gorm:"column:dismissed_at"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
