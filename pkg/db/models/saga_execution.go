package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/angelmondragon/fulfillz-backend/pkg/types"
)

// SagaExecution is the single source of truth for what a saga has done.
// Step and compensation logs are append-only jsonb arrays inside the row.
type SagaExecution struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SagaType      enums.SagaType            `gorm:"column:saga_type;type:saga_type;not null"`
	OrderID       uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	Status        enums.SagaStatus          `gorm:"column:status;type:saga_status;not null;default:'in_progress'"`
	Steps         types.SagaStepLog         `gorm:"column:steps;type:jsonb;serializer:json"`
	Compensations types.SagaCompensationLog `gorm:"column:compensations;type:jsonb;serializer:json"`
	LastError     *string                   `gorm:"column:last_error"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
