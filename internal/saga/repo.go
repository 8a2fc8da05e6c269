package saga

import (
	"context"
	"errors"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for saga executions.
type Repository interface {
	CreateExecution(ctx context.Context, exec *models.SagaExecution) (*models.SagaExecution, error)
	SaveExecution(ctx context.Context, exec *models.SagaExecution) error
	FindExecution(ctx context.Context, id uuid.UUID) (*models.SagaExecution, error)
	FindOpenByOrder(ctx context.Context, sagaType enums.SagaType, orderID uuid.UUID) (*models.SagaExecution, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SagaExecution, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a saga repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateExecution(ctx context.Context, exec *models.SagaExecution) (*models.SagaExecution, error) {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(exec).Error; err != nil {
		return nil, err
	}
	return exec, nil
}

func (r *repository) SaveExecution(ctx context.Context, exec *models.SagaExecution) error {
	return r.db.WithContext(ctx).Save(exec).Error
}

func (r *repository) FindExecution(ctx context.Context, id uuid.UUID) (*models.SagaExecution, error) {
	var exec models.SagaExecution
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&exec).Error
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

// FindOpenByOrder returns the most recent non-terminal execution for the order,
// or nil when none exists.
func (r *repository) FindOpenByOrder(ctx context.Context, sagaType enums.SagaType, orderID uuid.UUID) (*models.SagaExecution, error) {
	var exec models.SagaExecution
	err := r.db.WithContext(ctx).
		Where("saga_type = ? AND order_id = ? AND status = ?", sagaType, orderID, enums.SagaStatusInProgress).
		Order("created_at DESC").
		First(&exec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &exec, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SagaExecution, error) {
	var rows []models.SagaExecution
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
