package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a stocking site owned by a store. Inactive locations are skipped
// during reservation candidate search but keep their inventory rows.
type Location struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Priority  int       `gorm:"column:priority;not null;default:0"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
