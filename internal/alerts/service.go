package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/fulfillz-backend/pkg/db"
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

// RaiseInput carries the observed stock level that triggered an alert.
type RaiseInput struct {
	VariantID    uuid.UUID
	LocationID   uuid.UUID
	AvailableQty int
	Threshold    int
}

// Service owns the low stock alert lifecycle. Raising and resolving are
// idempotent per (variant, location): at most one ACTIVE alert exists for a
// pair at any time.
type Service interface {
	Raise(ctx context.Context, input RaiseInput) (*models.LowStockAlert, bool, error)
	ResolveFor(ctx context.Context, variantID, locationID uuid.UUID) (bool, error)
	Dismiss(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status enums.AlertStatus, limit int) ([]models.LowStockAlert, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the alerts service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("alerts repository required")
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

// Raise opens an ACTIVE alert for the pair unless one already exists. The
// second return value reports whether a new alert was created.
func (s *service) Raise(ctx context.Context, input RaiseInput) (*models.LowStockAlert, bool, error) {
	existing, err := s.repo.FindActive(ctx, input.VariantID, input.LocationID)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active alert")
	}
	if existing != nil {
		return existing, false, nil
	}

	var alert *models.LowStockAlert
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, &models.LowStockAlert{
			VariantID:    input.VariantID,
			LocationID:   input.LocationID,
			Status:       enums.AlertStatusActive,
			TriggeredQty: input.AvailableQty,
			Threshold:    input.Threshold,
		})
		if err != nil {
			return err
		}
		alert = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateLowStockAlert,
			AggregateID:   created.ID,
			Data: payloads.InventoryLowStockEvent{
				AlertID:      created.ID,
				VariantID:    input.VariantID,
				LocationID:   input.LocationID,
				AvailableQty: input.AvailableQty,
				Threshold:    input.Threshold,
				TriggeredAt:  time.Now(),
			},
			Version: 1,
		})
	})
	if err != nil {
		// The partial unique index closes the race between two monitor cycles.
		if db.IsUniqueViolation(err, "ux_low_stock_alerts_active") {
			existing, findErr := s.repo.FindActive(ctx, input.VariantID, input.LocationID)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create low stock alert")
	}
	return alert, true, nil
}

// ResolveFor closes the ACTIVE alert for the pair, if any.
func (s *service) ResolveFor(ctx context.Context, variantID, locationID uuid.UUID) (bool, error) {
	active, err := s.repo.FindActive(ctx, variantID, locationID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active alert")
	}
	if active == nil {
		return false, nil
	}
	resolved, err := s.repo.MarkResolved(ctx, active.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
	}
	return resolved, nil
}

func (s *service) Dismiss(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Newf(pkgerrors.CodeNotFound, "alert %s not found", id)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find alert")
	}
	dismissed, err := s.repo.MarkDismissed(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dismiss alert")
	}
	if !dismissed {
		return pkgerrors.Newf(pkgerrors.CodeStateConflict, "alert %s is not active", id)
	}
	return nil
}

func (s *service) List(ctx context.Context, status enums.AlertStatus, limit int) ([]models.LowStockAlert, error) {
	rows, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	return rows, nil
}
