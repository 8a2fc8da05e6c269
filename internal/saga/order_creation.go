package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/google/uuid"
)

// Step names for the order_creation saga.
const (
	StepCreateOrder         = "create_order"
	StepReserveInventory    = "reserve_inventory"
	StepCalculateShipping   = "calculate_shipping"
	StepCalculateTax        = "calculate_tax"
	StepCreatePaymentIntent = "create_payment_intent"
)

// CreateOrderResult is the create_order step result.
type CreateOrderResult struct {
	OrderID           uuid.UUID `json:"orderId"`
	FinancialStatus   string    `json:"financialStatus"`
	FulfillmentStatus string    `json:"fulfillmentStatus"`
}

// ReserveInventoryResult is the reserve_inventory step result.
type ReserveInventoryResult struct {
	ReservationIDs []uuid.UUID `json:"reservationIds"`
}

// PaymentIntentResult is the create_payment_intent step result.
type PaymentIntentResult struct {
	IntentID    string `json:"intentId"`
	AmountCents int64  `json:"amountCents"`
}

// CreationDeps are the collaborators the order_creation saga invokes.
// PaymentTimeout bounds every payment provider call; zero means no bound.
type CreationDeps struct {
	Orders         orders.Service
	Reservations   reservations.Service
	Pricing        *Pricing
	Payments       PaymentProvider
	PaymentTimeout time.Duration
}

// RegisterOrderCreation registers the order_creation steps and definition.
//
// reserve_inventory commits per line item, so a mid-order failure leaves a
// partial subset reserved; its compensation releases exactly that subset.
func RegisterOrderCreation(reg *Registry, deps CreationDeps) error {
	if deps.Orders == nil || deps.Reservations == nil || deps.Pricing == nil || deps.Payments == nil {
		return fmt.Errorf("order_creation saga requires orders, reservations, pricing and payments")
	}

	steps := []Step{
		{
			Name: StepCreateOrder,
			Run: func(ctx context.Context, st *State) (any, error) {
				order, err := deps.Orders.CreateOrder(ctx, st.OrderID)
				if err != nil {
					return nil, err
				}
				return CreateOrderResult{
					OrderID:           order.ID,
					FinancialStatus:   string(order.FinancialStatus),
					FulfillmentStatus: string(order.FulfillmentStatus),
				}, nil
			},
		},
		{
			Name: StepReserveInventory,
			Run: func(ctx context.Context, st *State) (any, error) {
				items := make([]reservations.LineItem, 0, len(st.Items))
				for _, item := range st.Items {
					items = append(items, reservations.LineItem{
						VariantID:           item.VariantID,
						Qty:                 item.Qty,
						PreferredLocationID: item.PreferredLocationID,
					})
				}
				reserved, err := deps.Reservations.ReserveForOrder(ctx, st.OrderID, items)
				if err != nil {
					return nil, err
				}
				ids := make([]uuid.UUID, 0, len(reserved))
				for _, r := range reserved {
					ids = append(ids, r.ID)
				}
				return ReserveInventoryResult{ReservationIDs: ids}, nil
			},
			Compensate: func(ctx context.Context, st *State) error {
				_, err := deps.Reservations.ReleaseForOrder(ctx, st.OrderID)
				return err
			},
		},
		{
			Name: StepCalculateShipping,
			Run: func(ctx context.Context, st *State) (any, error) {
				return deps.Pricing.Shipping(st.Items), nil
			},
		},
		{
			Name: StepCalculateTax,
			Run: func(ctx context.Context, st *State) (any, error) {
				return deps.Pricing.Tax(st.Items), nil
			},
		},
		{
			Name: StepCreatePaymentIntent,
			Run: func(ctx context.Context, st *State) (any, error) {
				var shipping ShippingQuote
				if err := st.Result(StepCalculateShipping, &shipping); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping quote")
				}
				var tax TaxQuote
				if err := st.Result(StepCalculateTax, &tax); err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load tax quote")
				}
				total := tax.SubtotalCents + shipping.AmountCents + tax.AmountCents
				payCtx, cancel := withPaymentTimeout(ctx, deps.PaymentTimeout)
				defer cancel()
				intentID, err := deps.Payments.CreateIntent(payCtx, st.OrderID, total)
				if err != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeSagaStepFailed, err, "create payment intent")
				}
				return PaymentIntentResult{IntentID: intentID, AmountCents: total}, nil
			},
			Compensate: func(ctx context.Context, st *State) error {
				var intent PaymentIntentResult
				if err := st.Result(StepCreatePaymentIntent, &intent); err != nil {
					return err
				}
				payCtx, cancel := withPaymentTimeout(ctx, deps.PaymentTimeout)
				defer cancel()
				return deps.Payments.VoidIntent(payCtx, intent.IntentID)
			},
		},
	}

	for _, step := range steps {
		if err := reg.RegisterStep(step); err != nil {
			return err
		}
	}
	return reg.RegisterDefinition(Definition{
		Type: enums.SagaTypeOrderCreation,
		Steps: []string{
			StepCreateOrder,
			StepReserveInventory,
			StepCalculateShipping,
			StepCalculateTax,
			StepCreatePaymentIntent,
		},
	})
}
