package inventory

import (
	"context"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) EnsureItem(ctx context.Context, variantID, locationID uuid.UUID) error {
	item := models.InventoryItem{
		VariantID:  variantID,
		LocationID: locationID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "variant_id"}, {Name: "location_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

func (r *repository) FindItem(ctx context.Context, variantID, locationID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND location_id = ?", variantID, locationID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItemsByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItemsByLocation(ctx context.Context, locationID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).Find(&items).Error
	return items, err
}

// ReserveQty moves qty from available to committed; the WHERE guard makes two
// concurrent callers serialize on the row, so the second observes depleted stock
// instead of overselling.
func (r *repository) ReserveQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty - ?,
			committed_qty = committed_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND location_id = ? AND available_qty >= ?
	`, qty, qty, variantID, locationID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ReleaseQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			committed_qty = committed_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND location_id = ? AND committed_qty >= ?
	`, qty, qty, variantID, locationID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseAllCommitted zeroes committed and returns it to available. Used when a
// release request exceeds what is committed.
func (r *repository) ReleaseAllCommitted(ctx context.Context, variantID, locationID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + committed_qty,
			committed_qty = 0,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND location_id = ?
	`, variantID, locationID).Error
}

func (r *repository) FulfillQty(ctx context.Context, variantID, locationID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET committed_qty = committed_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND location_id = ? AND committed_qty >= ?
	`, qty, variantID, locationID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) AdjustAvailable(ctx context.Context, variantID, locationID uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE variant_id = ? AND location_id = ? AND available_qty + ? >= 0
	`, delta, variantID, locationID, delta)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetLowStockThreshold(ctx context.Context, variantID, locationID uuid.UUID, threshold *int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("variant_id = ? AND location_id = ?", variantID, locationID).
		Update("low_stock_threshold", threshold)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.InventoryAdjustment) error {
	if adjustment.ID == uuid.Nil {
		adjustment.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) ListAdjustments(ctx context.Context, variantID, locationID uuid.UUID, limit int) ([]models.InventoryAdjustment, error) {
	var rows []models.InventoryAdjustment
	q := r.db.WithContext(ctx).
		Where("variant_id = ? AND location_id = ?", variantID, locationID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
