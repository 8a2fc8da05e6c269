package orders

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

// TransitionInput requests a status change on one or both axes.
type TransitionInput struct {
	OrderID        uuid.UUID
	NewFinancial   *enums.OrderFinancialStatus
	NewFulfillment *enums.OrderFulfillmentStatus
	Comment        *string
}

// Service validates and applies order status transitions. Every applied
// transition appends a history row and mirrors the change to the outbox
// inside the same transaction.
type Service interface {
	CreateOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ApplyTransition(ctx context.Context, input TransitionInput) (*models.Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// NewService builds the order state machine service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
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

// CreateOrder inserts a fresh order in PENDING/UNFULFILLED. Re-invocation with
// the same id returns the existing row unchanged.
func (s *service) CreateOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	order := models.Order{
		ID:                id,
		FinancialStatus:   enums.FinancialStatusPending,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
	}
	if _, err := s.repo.CreateOrder(ctx, &order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	created, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find order")
	}
	return order, nil
}

func (s *service) ApplyTransition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.NewFinancial != nil && !input.NewFinancial.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid financial status %q", *input.NewFinancial)
	}
	if input.NewFulfillment != nil && !input.NewFulfillment.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid fulfillment status %q", *input.NewFulfillment)
	}

	order, err := s.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	// Reject before any mutation occurs.
	if err := ValidateTransition(order.FinancialStatus, order.FulfillmentStatus, input.NewFinancial, input.NewFulfillment); err != nil {
		return nil, err
	}

	newFinancial := order.FinancialStatus
	if input.NewFinancial != nil {
		newFinancial = *input.NewFinancial
	}
	newFulfillment := order.FulfillmentStatus
	if input.NewFulfillment != nil {
		newFulfillment = *input.NewFulfillment
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.UpdateStatuses(ctx, order.ID,
			order.FinancialStatus, newFinancial,
			order.FulfillmentStatus, newFulfillment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order statuses")
		}
		if !applied {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"order %s was modified concurrently", order.ID)
		}
		if err := repo.CreateHistory(ctx, &models.OrderStatusHistory{
			OrderID:             order.ID,
			PreviousFinancial:   order.FinancialStatus,
			NewFinancial:        newFinancial,
			PreviousFulfillment: order.FulfillmentStatus,
			NewFulfillment:      newFulfillment,
			Comment:             input.Comment,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append order status history")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:             order.ID,
				PreviousFinancial:   string(order.FinancialStatus),
				NewFinancial:        string(newFinancial),
				PreviousFulfillment: string(order.FulfillmentStatus),
				NewFulfillment:      string(newFulfillment),
				Comment:             input.Comment,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	order.FinancialStatus = newFinancial
	order.FulfillmentStatus = newFulfillment
	return order, nil
}

func (s *service) History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	rows, err := s.repo.ListHistory(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order status history")
	}
	return rows, nil
}
