package reservations

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fulfillz-backend/internal/inventory"
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

// Ledger is the slice of the inventory service reservations depend on.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
	Release(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
	Fulfill(ctx context.Context, tx *gorm.DB, variantID, locationID uuid.UUID, qty int) error
}

// LineItem is one reservation request within an order.
type LineItem struct {
	VariantID           uuid.UUID
	Qty                 int
	PreferredLocationID *uuid.UUID
}

// Service manages the reservation lifecycle for whole orders.
//
// ReserveForOrder commits each line item independently. When a later item
// cannot be satisfied, earlier reservations stay in place and the error is
// returned; the order-creation saga releases that partial subset through its
// reserve_inventory compensation. Re-invocation for the same order reuses the
// ACTIVE reservations already in place, so a retried saga step never
// double-reserves stock.
type Service interface {
	ReserveForOrder(ctx context.Context, orderID uuid.UUID, items []LineItem) ([]models.InventoryReservation, error)
	ReleaseForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	FulfillForOrder(ctx context.Context, orderID uuid.UUID) (int, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error)
}

type service struct {
	repo   Repository
	ledger Ledger
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the reservation manager with the required dependencies.
func NewService(repo Repository, ledger Ledger, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
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
	return &service{repo: repo, ledger: ledger, tx: tx, outbox: publisher, logg: logg}, nil
}

func (s *service) ReserveForOrder(ctx context.Context, orderID uuid.UUID, items []LineItem) ([]models.InventoryReservation, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line item required")
	}

	reserved := make([]models.InventoryReservation, 0, len(items))
	for _, item := range items {
		if item.Qty <= 0 {
			return reserved, pkgerrors.Newf(pkgerrors.CodeValidation,
				"line item quantity must be positive for variant %s", item.VariantID)
		}

		existing, err := s.repo.FindActiveLine(ctx, orderID, item.VariantID)
		if err != nil {
			return reserved, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find existing reservation")
		}
		if existing != nil {
			reserved = append(reserved, *existing)
			continue
		}

		candidates, err := s.repo.ListCandidates(ctx, item.VariantID)
		if err != nil {
			return reserved, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list candidate locations")
		}
		locationID, ok := PickLocation(candidates, item.Qty, item.PreferredLocationID)
		if !ok {
			return reserved, pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
				"insufficient inventory for variant %s", item.VariantID)
		}

		reservation, err := s.reserveItem(ctx, orderID, item, locationID)
		if err != nil {
			return reserved, err
		}
		reserved = append(reserved, *reservation)
	}
	return reserved, nil
}

func (s *service) reserveItem(ctx context.Context, orderID uuid.UUID, item LineItem, locationID uuid.UUID) (*models.InventoryReservation, error) {
	var reservation *models.InventoryReservation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.Reserve(ctx, tx, item.VariantID, locationID, item.Qty); err != nil {
			return err
		}
		created, err := s.repo.WithTx(tx).CreateReservation(ctx, &models.InventoryReservation{
			OrderID:    orderID,
			VariantID:  item.VariantID,
			LocationID: locationID,
			Qty:        item.Qty,
			Status:     enums.ReservationStatusActive,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
		}
		reservation = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryReserved,
			AggregateType: enums.AggregateReservation,
			AggregateID:   created.ID,
			Data: payloads.InventoryReservedEvent{
				OrderID:       orderID,
				ReservationID: created.ID,
				VariantID:     item.VariantID,
				LocationID:    locationID,
				Qty:           item.Qty,
			},
			Version: 1,
		})
	})
	if err != nil {
		// A concurrent call reserved this line first. The transaction rolled
		// back the ledger decrement, so adopt the winner's reservation.
		if db.IsUniqueViolation(err, "ux_inventory_reservations_active_line") {
			existing, findErr := s.repo.FindActiveLine(ctx, orderID, item.VariantID)
			if findErr == nil && existing != nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return reservation, nil
}

func (s *service) ReleaseForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	active, err := s.repo.FindActiveByOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active reservations")
	}
	if len(active) == 0 {
		return 0, nil
	}

	released := 0
	for _, reservation := range active {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			flipped, err := s.repo.WithTx(tx).MarkStatus(ctx, reservation.ID,
				enums.ReservationStatusActive, enums.ReservationStatusReleased)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reservation released")
			}
			if !flipped {
				// Lost the race to a concurrent release/fulfill, nothing to undo.
				return nil
			}
			if err := s.ledger.Release(ctx, tx, reservation.VariantID, reservation.LocationID, reservation.Qty); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInventoryReleased,
				AggregateType: enums.AggregateReservation,
				AggregateID:   reservation.ID,
				Data: payloads.InventoryReleasedEvent{
					OrderID:       orderID,
					ReservationID: reservation.ID,
					VariantID:     reservation.VariantID,
					LocationID:    reservation.LocationID,
					Qty:           reservation.Qty,
				},
				Version: 1,
			})
		})
		if err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}

func (s *service) FulfillForOrder(ctx context.Context, orderID uuid.UUID) (int, error) {
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	active, err := s.repo.FindActiveByOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active reservations")
	}
	if len(active) == 0 {
		// Already fulfilled or released, re-invocation is a no-op.
		s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "no active reservations to fulfill")
		return 0, nil
	}

	fulfilled := 0
	for _, reservation := range active {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			flipped, err := s.repo.WithTx(tx).MarkStatus(ctx, reservation.ID,
				enums.ReservationStatusActive, enums.ReservationStatusFulfilled)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reservation fulfilled")
			}
			if !flipped {
				return nil
			}
			if err := s.ledger.Fulfill(ctx, tx, reservation.VariantID, reservation.LocationID, reservation.Qty); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInventoryFulfilled,
				AggregateType: enums.AggregateReservation,
				AggregateID:   reservation.ID,
				Data: payloads.InventoryFulfilledEvent{
					OrderID:       orderID,
					ReservationID: reservation.ID,
					VariantID:     reservation.VariantID,
					LocationID:    reservation.LocationID,
					Qty:           reservation.Qty,
				},
				Version: 1,
			})
		})
		if err != nil {
			return fulfilled, err
		}
		fulfilled++
	}
	return fulfilled, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryReservation, error) {
	rows, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return rows, nil
}

var _ Ledger = inventory.Service(nil)
