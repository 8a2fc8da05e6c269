package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/pkg/config"
	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
)

type fakeOrders struct {
	order       *models.Order
	transitions []orders.TransitionInput
}

func (f *fakeOrders) CreateOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order == nil {
		f.order = &models.Order{
			ID:                id,
			FinancialStatus:   enums.FinancialStatusPending,
			FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
		}
	}
	return f.order, nil
}

func (f *fakeOrders) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if f.order == nil || f.order.ID != id {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order %s not found", id)
	}
	return f.order, nil
}

func (f *fakeOrders) ApplyTransition(_ context.Context, input orders.TransitionInput) (*models.Order, error) {
	f.transitions = append(f.transitions, input)
	if input.NewFinancial != nil {
		f.order.FinancialStatus = *input.NewFinancial
	}
	if input.NewFulfillment != nil {
		f.order.FulfillmentStatus = *input.NewFulfillment
	}
	return f.order, nil
}

func (f *fakeOrders) History(context.Context, uuid.UUID) ([]models.OrderStatusHistory, error) {
	return nil, nil
}

type fakeReservations struct {
	reserveErr   error
	reserved     []models.InventoryReservation
	releaseCalls int
}

func (f *fakeReservations) ReserveForOrder(_ context.Context, orderID uuid.UUID, items []reservations.LineItem) ([]models.InventoryReservation, error) {
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	for range items {
		f.reserved = append(f.reserved, models.InventoryReservation{
			ID:      uuid.New(),
			OrderID: orderID,
			Status:  enums.ReservationStatusActive,
		})
	}
	return f.reserved, nil
}

func (f *fakeReservations) ReleaseForOrder(context.Context, uuid.UUID) (int, error) {
	f.releaseCalls++
	released := len(f.reserved)
	f.reserved = nil
	return released, nil
}

func (f *fakeReservations) FulfillForOrder(context.Context, uuid.UUID) (int, error) {
	return len(f.reserved), nil
}

func (f *fakeReservations) ListForOrder(context.Context, uuid.UUID) ([]models.InventoryReservation, error) {
	return f.reserved, nil
}

type fakePayments struct {
	createErr   error
	refundErr   error
	blockCreate bool
	captured    []int64
	voided      []string
	refunded    int
}

func (f *fakePayments) CreateIntent(ctx context.Context, _ uuid.UUID, amountCents int64) (string, error) {
	if f.blockCreate {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	f.captured = append(f.captured, amountCents)
	return "pi_" + uuid.NewString(), nil
}

func (f *fakePayments) VoidIntent(_ context.Context, intentID string) error {
	f.voided = append(f.voided, intentID)
	return nil
}

func (f *fakePayments) RefundPayment(context.Context, uuid.UUID) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded++
	return nil
}

func testPricing() *Pricing {
	return NewPricing(config.SagaConfig{
		ShippingFlatRateCents: 500,
		ShippingPerItemCents:  100,
		TaxRateBasisPoints:    875,
	})
}

func TestOrderCreationHappyPath(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ordersSvc := &fakeOrders{}
	reservationsSvc := &fakeReservations{}
	payments := &fakePayments{}
	err := RegisterOrderCreation(reg, CreationDeps{
		Orders:       ordersSvc,
		Reservations: reservationsSvc,
		Pricing:      testPricing(),
		Payments:     payments,
	})
	if err != nil {
		t.Fatalf("register order creation: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{
		OrderID: uuid.New(),
		Items:   []OrderItem{{VariantID: uuid.New(), Qty: 2, UnitPriceCents: 1000}},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}
	// subtotal 2000, tax 175, shipping 500 + 2*100.
	if len(payments.captured) != 1 || payments.captured[0] != 2875 {
		t.Fatalf("unexpected charged total: %v", payments.captured)
	}
	if len(reservationsSvc.reserved) != 1 {
		t.Fatalf("expected one reservation, got %d", len(reservationsSvc.reserved))
	}
	if len(exec.Steps) != 5 {
		t.Fatalf("expected 5 step records, got %d", len(exec.Steps))
	}
}

func TestOrderCreationPaymentFailureReleasesReservations(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ordersSvc := &fakeOrders{}
	reservationsSvc := &fakeReservations{}
	payments := &fakePayments{createErr: errors.New("card declined")}
	err := RegisterOrderCreation(reg, CreationDeps{
		Orders:       ordersSvc,
		Reservations: reservationsSvc,
		Pricing:      testPricing(),
		Payments:     payments,
	})
	if err != nil {
		t.Fatalf("register order creation: %v", err)
	}

	orch, ob := newTestOrchestrator(t, reg, newMemRepo())
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{
		OrderID: uuid.New(),
		Items:   []OrderItem{{VariantID: uuid.New(), Qty: 1, UnitPriceCents: 500}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeSagaStepFailed) {
		t.Fatalf("expected saga step failure, got %v", err)
	}
	if exec.Status != enums.SagaStatusFailed {
		t.Fatalf("expected failed, got %s", exec.Status)
	}
	if reservationsSvc.releaseCalls != 1 {
		t.Fatalf("expected reservation release compensation, got %d calls", reservationsSvc.releaseCalls)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventSagaFailed {
		t.Fatalf("expected saga.failed event, got %+v", ob.events)
	}

	found := false
	for _, record := range exec.Compensations {
		if record.StepName == StepReserveInventory {
			found = true
		}
	}
	if !found {
		t.Fatalf("reserve_inventory compensation not logged: %+v", exec.Compensations)
	}
}

func TestOrderCreationPaymentTimeoutFailsSaga(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reservationsSvc := &fakeReservations{}
	err := RegisterOrderCreation(reg, CreationDeps{
		Orders:         &fakeOrders{},
		Reservations:   reservationsSvc,
		Pricing:        testPricing(),
		Payments:       &fakePayments{blockCreate: true},
		PaymentTimeout: 5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("register order creation: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{
		OrderID: uuid.New(),
		Items:   []OrderItem{{VariantID: uuid.New(), Qty: 1, UnitPriceCents: 500}},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error from the stalled provider, got %v", err)
	}
	if exec.Status != enums.SagaStatusFailed {
		t.Fatalf("expected failed, got %s", exec.Status)
	}
	if reservationsSvc.releaseCalls != 1 {
		t.Fatalf("expected reservation release compensation, got %d calls", reservationsSvc.releaseCalls)
	}
}

func TestOrderCreationInsufficientStockFailsSaga(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ordersSvc := &fakeOrders{}
	reservationsSvc := &fakeReservations{
		reserveErr: pkgerrors.New(pkgerrors.CodeInsufficientStock, "no stock"),
	}
	err := RegisterOrderCreation(reg, CreationDeps{
		Orders:       ordersSvc,
		Reservations: reservationsSvc,
		Pricing:      testPricing(),
		Payments:     &fakePayments{},
	})
	if err != nil {
		t.Fatalf("register order creation: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	_, err = orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{
		OrderID: uuid.New(),
		Items:   []OrderItem{{VariantID: uuid.New(), Qty: 3, UnitPriceCents: 100}},
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected insufficient stock to surface unchanged, got %v", err)
	}
}

func TestOrderCancellationVoidsUnpaidOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ordersSvc := &fakeOrders{}
	reservationsSvc := &fakeReservations{}
	payments := &fakePayments{}
	if err := RegisterOrderCancellation(reg, CancellationDeps{
		Orders:       ordersSvc,
		Reservations: reservationsSvc,
		Payments:     payments,
	}); err != nil {
		t.Fatalf("register order cancellation: %v", err)
	}

	orderID := uuid.New()
	if _, err := ordersSvc.CreateOrder(context.Background(), orderID); err != nil {
		t.Fatalf("seed order: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCancellation, &State{OrderID: orderID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}
	if ordersSvc.order.FinancialStatus != enums.FinancialStatusVoided {
		t.Fatalf("pending order must be voided, got %s", ordersSvc.order.FinancialStatus)
	}
	if reservationsSvc.releaseCalls != 1 {
		t.Fatalf("expected inventory release, got %d calls", reservationsSvc.releaseCalls)
	}
	if payments.refunded != 0 {
		t.Fatal("unpaid order must not be refunded")
	}
}

func TestOrderCancellationRefundsPaidOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	orderID := uuid.New()
	ordersSvc := &fakeOrders{order: &models.Order{
		ID:                orderID,
		FinancialStatus:   enums.FinancialStatusPaid,
		FulfillmentStatus: enums.FulfillmentStatusUnfulfilled,
	}}
	payments := &fakePayments{}
	if err := RegisterOrderCancellation(reg, CancellationDeps{
		Orders:       ordersSvc,
		Reservations: &fakeReservations{},
		Payments:     payments,
	}); err != nil {
		t.Fatalf("register order cancellation: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCancellation, &State{OrderID: orderID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}
	if payments.refunded != 1 {
		t.Fatal("paid order must be refunded")
	}
	if ordersSvc.order.FinancialStatus != enums.FinancialStatusRefunded {
		t.Fatalf("expected refunded, got %s", ordersSvc.order.FinancialStatus)
	}
}

func TestOrderCancellationRejectsTerminalOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	orderID := uuid.New()
	ordersSvc := &fakeOrders{order: &models.Order{
		ID:              orderID,
		FinancialStatus: enums.FinancialStatusVoided,
	}}
	reservationsSvc := &fakeReservations{}
	if err := RegisterOrderCancellation(reg, CancellationDeps{
		Orders:       ordersSvc,
		Reservations: reservationsSvc,
		Payments:     &fakePayments{},
	}); err != nil {
		t.Fatalf("register order cancellation: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, newMemRepo())
	_, err := orch.Execute(context.Background(), enums.SagaTypeOrderCancellation, &State{OrderID: orderID})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if reservationsSvc.releaseCalls != 0 {
		t.Fatal("later steps must not run after the first step fails")
	}
}
