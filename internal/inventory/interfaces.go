package inventory

import (
	"context"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for inventory counter tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	EnsureItem(ctx context.Context, variantID, locationID uuid.UUID) error
	FindItem(ctx context.Context, variantID, locationID uuid.UUID) (*models.InventoryItem, error)
	ListItemsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryItem, error)
	ListItemsByLocation(ctx context.Context, locationID uuid.UUID) ([]models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	ReserveQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error)
	ReleaseQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error)
	ReleaseAllCommitted(ctx context.Context, variantID, locationID uuid.UUID) error
	FulfillQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error)
	AdjustAvailable(ctx context.Context, variantID, locationID uuid.UUID, delta int) (bool, error)
	SetLowStockThreshold(ctx context.Context, variantID, locationID uuid.UUID, threshold *int) (bool, error)
	CreateAdjustment(ctx context.Context, adjustment *models.InventoryAdjustment) error
	ListAdjustments(ctx context.Context, variantID, locationID uuid.UUID, limit int) ([]models.InventoryAdjustment, error)
}
