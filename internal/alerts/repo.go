package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an alerts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, alert *models.LowStockAlert) (*models.LowStockAlert, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return nil, err
	}
	return alert, nil
}

// FindActive returns the ACTIVE alert for the pair, or nil when none exists.
func (r *repository) FindActive(ctx context.Context, variantID, locationID uuid.UUID) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND location_id = ? AND status = ?",
			variantID, locationID, enums.AlertStatusActive).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LowStockAlert, error) {
	var alert models.LowStockAlert
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alert).Error
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) MarkResolved(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LowStockAlert{}).
		Where("id = ? AND status = ?", id, enums.AlertStatusActive).
		Updates(map[string]any{
			"status":      enums.AlertStatusResolved,
			"resolved_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) MarkDismissed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.LowStockAlert{}).
		Where("id = ? AND status = ?", id, enums.AlertStatusActive).
		Updates(map[string]any{
			"status":       enums.AlertStatusDismissed,
			"dismissed_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.AlertStatus, limit int) ([]models.LowStockAlert, error) {
	var rows []models.LowStockAlert
	q := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}
