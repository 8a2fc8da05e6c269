package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the authoritative writer of per (variant, location) stock counters.
// Reserve/Release/Fulfill run inside a caller-supplied transaction so the caller
// can persist its own rows atomically with the counter movement.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
	Fulfill(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, error)
	Transfer(ctx context.Context, input TransferInput) error
	SetThreshold(ctx context.Context, variantID, locationID uuid.UUID, threshold *int) error
	GetItem(ctx context.Context, variantID, locationID uuid.UUID) (*models.InventoryItem, error)
	GetByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryItem, error)
	GetByLocation(ctx context.Context, locationID uuid.UUID) ([]models.InventoryItem, error)
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
	ListAdjustments(ctx context.Context, variantID, locationID uuid.UUID, limit int) ([]models.InventoryAdjustment, error)
}

// AdjustInput captures a manual signed change to available stock.
type AdjustInput struct {
	VariantID  uuid.UUID
	LocationID uuid.UUID
	Delta      int
	Reason     enums.AdjustmentReason
	Notes      *string
}

// TransferInput moves available stock between two locations of the same variant.
type TransferInput struct {
	VariantID      uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Qty            int
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the inventory ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, logg: logg}, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reserve")
	}
	ok, err := s.repo.WithTx(tx).ReserveQty(ctx, variantID, locationID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve inventory")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"insufficient inventory for variant %s at location %s", variantID, locationID)
	}
	return nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.ReleaseQty(ctx, variantID, locationID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory")
	}
	if ok {
		return nil
	}
	// Committed is lower than the requested release. Clamp to zero instead of
	// going negative and flag the anomaly for operators.
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"variant_id":  variantID.String(),
		"location_id": locationID.String(),
		"release_qty": qty,
	})
	s.logg.Warn(logCtx, "release exceeds committed stock, clamping to zero")
	if err := repo.ReleaseAllCommitted(ctx, variantID, locationID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clamp inventory release")
	}
	return nil
}

func (s *service) Fulfill(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "fulfill quantity must be positive")
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory fulfill")
	}
	ok, err := s.repo.WithTx(tx).FulfillQty(ctx, variantID, locationID, qty)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fulfill inventory")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"committed stock below fulfill quantity for variant %s at location %s", variantID, locationID)
	}
	return nil
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryItem, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment delta must be non-zero")
	}
	if !input.Reason.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid adjustment reason %q", input.Reason)
	}

	var updated *models.InventoryItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		item, err := s.applyAdjust(ctx, tx, input)
		if err != nil {
			return err
		}
		updated = item
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryAdjusted,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   input.VariantID,
			Data: payloads.InventoryAdjustedEvent{
				VariantID:    input.VariantID,
				LocationID:   input.LocationID,
				Delta:        input.Delta,
				Reason:       string(input.Reason),
				AvailableQty: item.AvailableQty,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) error {
	if input.Qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer quantity must be positive")
	}
	if input.FromLocationID == input.ToLocationID {
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer requires two distinct locations")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.applyAdjust(ctx, tx, AdjustInput{
			VariantID:  input.VariantID,
			LocationID: input.FromLocationID,
			Delta:      -input.Qty,
			Reason:     enums.AdjustmentReasonTransferOut,
		}); err != nil {
			return err
		}
		if _, err := s.applyAdjust(ctx, tx, AdjustInput{
			VariantID:  input.VariantID,
			LocationID: input.ToLocationID,
			Delta:      input.Qty,
			Reason:     enums.AdjustmentReasonTransferIn,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryTransferred,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   input.VariantID,
			Data: payloads.InventoryTransferredEvent{
				VariantID:      input.VariantID,
				FromLocationID: input.FromLocationID,
				ToLocationID:   input.ToLocationID,
				Qty:            input.Qty,
			},
			Version: 1,
		})
	})
}

// applyAdjust moves available stock and writes the audit row inside the caller's
// transaction. A negative delta that would drive available below zero fails the
// whole transaction.
func (s *service) applyAdjust(ctx context.Context, tx *gorm.DB, input AdjustInput) (*models.InventoryItem, error) {
	repo := s.repo.WithTx(tx)
	if err := repo.EnsureItem(ctx, input.VariantID, input.LocationID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensure inventory item")
	}
	ok, err := repo.AdjustAvailable(ctx, input.VariantID, input.LocationID, input.Delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust inventory")
	}
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
			"insufficient inventory for variant %s at location %s", input.VariantID, input.LocationID)
	}
	if err := repo.CreateAdjustment(ctx, &models.InventoryAdjustment{
		VariantID:  input.VariantID,
		LocationID: input.LocationID,
		Delta:      input.Delta,
		Reason:     input.Reason,
		Notes:      input.Notes,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory adjustment")
	}
	item, err := repo.FindItem(ctx, input.VariantID, input.LocationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory item")
	}
	return item, nil
}

func (s *service) SetThreshold(ctx context.Context, variantID, locationID uuid.UUID, threshold *int) error {
	if threshold != nil && *threshold < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must not be negative")
	}
	ok, err := s.repo.SetLowStockThreshold(ctx, variantID, locationID, threshold)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set low stock threshold")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeNotFound,
			"no inventory item for variant %s at location %s", variantID, locationID)
	}
	return nil
}

func (s *service) GetItem(ctx context.Context, variantID, locationID uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.repo.FindItem(ctx, variantID, locationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound,
				"no inventory item for variant %s at location %s", variantID, locationID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find inventory item")
	}
	return item, nil
}

func (s *service) GetByVariant(ctx context.Context, variantID uuid.UUID) ([]models.InventoryItem, error) {
	items, err := s.repo.ListItemsByVariant(ctx, variantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory by variant")
	}
	return items, nil
}

func (s *service) GetByLocation(ctx context.Context, locationID uuid.UUID) ([]models.InventoryItem, error) {
	items, err := s.repo.ListItemsByLocation(ctx, locationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory by location")
	}
	return items, nil
}

func (s *service) ListItems(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory items")
	}
	return items, nil
}

func (s *service) ListAdjustments(ctx context.Context, variantID, locationID uuid.UUID, limit int) ([]models.InventoryAdjustment, error) {
	rows, err := s.repo.ListAdjustments(ctx, variantID, locationID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory adjustments")
	}
	return rows, nil
}
