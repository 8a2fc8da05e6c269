package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
)

// Step names for the order_cancellation saga.
const (
	StepCancelOrder      = "cancel_order"
	StepReleaseInventory = "release_inventory"
	StepRefundPayment    = "refund_payment"
)

// CancelOrderResult is the cancel_order step result.
type CancelOrderResult struct {
	FinancialStatus string `json:"financialStatus"`
	Voided          bool   `json:"voided"`
}

// ReleaseInventoryResult is the release_inventory step result.
type ReleaseInventoryResult struct {
	Released int `json:"released"`
}

// RefundPaymentResult is the refund_payment step result.
type RefundPaymentResult struct {
	Refunded bool `json:"refunded"`
}

// CancellationDeps are the collaborators the order_cancellation saga invokes.
// PaymentTimeout bounds the refund provider call; zero means no bound.
type CancellationDeps struct {
	Orders         orders.Service
	Reservations   reservations.Service
	Payments       PaymentProvider
	PaymentTimeout time.Duration
}

// RegisterOrderCancellation registers the order_cancellation steps and definition.
//
// None of the steps carry a compensation: releasing is idempotent and safe to
// leave applied, and a refund failure is terminal and surfaced, never silently
// compensated.
func RegisterOrderCancellation(reg *Registry, deps CancellationDeps) error {
	if deps.Orders == nil || deps.Reservations == nil || deps.Payments == nil {
		return fmt.Errorf("order_cancellation saga requires orders, reservations and payments")
	}

	steps := []Step{
		{
			Name: StepCancelOrder,
			Run: func(ctx context.Context, st *State) (any, error) {
				order, err := deps.Orders.GetOrder(ctx, st.OrderID)
				if err != nil {
					return nil, err
				}
				if !orders.CanCancel(order.FinancialStatus) {
					return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
						"order %s cannot be cancelled from financial status %s", order.ID, order.FinancialStatus)
				}
				// Unpaid orders are voided here; paid orders keep their financial
				// status until refund_payment settles them.
				if order.FinancialStatus == enums.FinancialStatusPending ||
					order.FinancialStatus == enums.FinancialStatusAuthorized {
					voided := enums.FinancialStatusVoided
					if _, err := deps.Orders.ApplyTransition(ctx, orders.TransitionInput{
						OrderID:      order.ID,
						NewFinancial: &voided,
					}); err != nil {
						return nil, err
					}
					return CancelOrderResult{FinancialStatus: string(voided), Voided: true}, nil
				}
				return CancelOrderResult{FinancialStatus: string(order.FinancialStatus)}, nil
			},
		},
		{
			Name: StepReleaseInventory,
			Run: func(ctx context.Context, st *State) (any, error) {
				released, err := deps.Reservations.ReleaseForOrder(ctx, st.OrderID)
				if err != nil {
					return nil, err
				}
				return ReleaseInventoryResult{Released: released}, nil
			},
		},
		{
			Name: StepRefundPayment,
			Run: func(ctx context.Context, st *State) (any, error) {
				order, err := deps.Orders.GetOrder(ctx, st.OrderID)
				if err != nil {
					return nil, err
				}
				if !orders.CanRefund(order.FinancialStatus) {
					return RefundPaymentResult{Refunded: false}, nil
				}
				payCtx, cancel := withPaymentTimeout(ctx, deps.PaymentTimeout)
				defer cancel()
				if err := deps.Payments.RefundPayment(payCtx, st.OrderID); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeSagaStepFailed, err, "refund payment")
				}
				refunded := enums.FinancialStatusRefunded
				if _, err := deps.Orders.ApplyTransition(ctx, orders.TransitionInput{
					OrderID:      order.ID,
					NewFinancial: &refunded,
				}); err != nil {
					return nil, err
				}
				return RefundPaymentResult{Refunded: true}, nil
			},
		},
	}

	for _, step := range steps {
		if err := reg.RegisterStep(step); err != nil {
			return err
		}
	}
	return reg.RegisterDefinition(Definition{
		Type: enums.SagaTypeOrderCancellation,
		Steps: []string{
			StepCancelOrder,
			StepReleaseInventory,
			StepRefundPayment,
		},
	})
}
