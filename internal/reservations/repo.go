package reservations

import (
	"context"
	"errors"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReservation(ctx context.Context, reservation *models.InventoryReservation) (*models.InventoryReservation, error) {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error) {
	var rows []models.InventoryReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error) {
	var rows []models.InventoryReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, enums.ReservationStatusActive).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindActiveLine returns the ACTIVE reservation for one order line, or nil when
// none exists. The ux_inventory_reservations_active_line index guarantees at
// most one row matches.
func (r *repository) FindActiveLine(ctx context.Context, orderID, variantID uuid.UUID) (*models.InventoryReservation, error) {
	var row models.InventoryReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND variant_id = ? AND status = ?", orderID, variantID, enums.ReservationStatusActive).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// MarkStatus flips a reservation's status only when it still holds the expected
// one, so a reservation leaves ACTIVE at most once even under retries.
func (r *repository) MarkStatus(ctx context.Context, id uuid.UUID, from, to enums.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryReservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListCandidates(ctx context.Context, variantID uuid.UUID) ([]LocationCandidate, error) {
	var rows []LocationCandidate
	err := r.db.WithContext(ctx).Raw(`
		SELECT l.id AS location_id,
			l.priority AS priority,
			COALESCE(i.available_qty, 0) AS available_qty
		FROM locations l
		LEFT JOIN inventory_items i
			ON i.location_id = l.id AND i.variant_id = ?
		WHERE l.is_active = ?
		ORDER BY l.priority DESC
	`, variantID, true).Scan(&rows).Error
	return rows, err
}
