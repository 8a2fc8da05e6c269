package reservations

import (
	"context"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for reservations and candidate lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateReservation(ctx context.Context, reservation *models.InventoryReservation) (*models.InventoryReservation, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error)
	FindActiveLine(ctx context.Context, orderID, variantID uuid.UUID) (*models.InventoryReservation, error)
	MarkStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error)
	ListCandidates(ctx context.Context, variantID uuid.UUID) ([]LocationCandidate, error)
}
