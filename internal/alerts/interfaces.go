package alerts

import (
	"context"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for low stock alerts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.LowStockAlert) (*models.LowStockAlert, error)
	FindActive(ctx context.Context, variantID, locationID uuid.UUID) (*models.LowStockAlert, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LowStockAlert, error)
	MarkResolved(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDismissed(ctx context.Context, id uuid.UUID) (bool, error)
	ListByStatus(ctx context.Context, status enums.AlertStatus, limit int) ([]models.LowStockAlert, error)
}
