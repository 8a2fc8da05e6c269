package orderevents

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/internal/saga"
	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

type executeCall struct {
	sagaType enums.SagaType
	state    *saga.State
}

type fakeOrchestrator struct {
	calls []executeCall
	err   error
}

func (f *fakeOrchestrator) Execute(_ context.Context, sagaType enums.SagaType, st *saga.State) (*models.SagaExecution, error) {
	f.calls = append(f.calls, executeCall{sagaType: sagaType, state: st})
	if f.err != nil {
		return nil, f.err
	}
	return &models.SagaExecution{ID: uuid.New(), Status: enums.SagaStatusCompleted}, nil
}

func (f *fakeOrchestrator) Executions(context.Context, uuid.UUID) ([]models.SagaExecution, error) {
	return nil, nil
}

type fakeReservationSvc struct {
	fulfillCount int
	fulfillErr   error
	fulfilled    []uuid.UUID
}

func (f *fakeReservationSvc) ReserveForOrder(context.Context, uuid.UUID, []reservations.LineItem) ([]models.InventoryReservation, error) {
	return nil, nil
}

func (f *fakeReservationSvc) ReleaseForOrder(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeReservationSvc) FulfillForOrder(_ context.Context, orderID uuid.UUID) (int, error) {
	if f.fulfillErr != nil {
		return 0, f.fulfillErr
	}
	f.fulfilled = append(f.fulfilled, orderID)
	return f.fulfillCount, nil
}

func (f *fakeReservationSvc) ListForOrder(context.Context, uuid.UUID) ([]models.InventoryReservation, error) {
	return nil, nil
}

type fakeOrderSvc struct {
	transitions []orders.TransitionInput
}

func (f *fakeOrderSvc) CreateOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (f *fakeOrderSvc) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: id}, nil
}

func (f *fakeOrderSvc) ApplyTransition(_ context.Context, input orders.TransitionInput) (*models.Order, error) {
	f.transitions = append(f.transitions, input)
	return &models.Order{ID: input.OrderID}, nil
}

func (f *fakeOrderSvc) History(context.Context, uuid.UUID) ([]models.OrderStatusHistory, error) {
	return nil, nil
}

func newTestConsumer(t *testing.T, orch *fakeOrchestrator, resSvc *fakeReservationSvc, orderSvc *fakeOrderSvc) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(orch, resSvc, orderSvc, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func TestProcessOrderCreatedStartsCreationSaga(t *testing.T) {
	t.Parallel()

	orch := &fakeOrchestrator{}
	consumer := newTestConsumer(t, orch, &fakeReservationSvc{}, &fakeOrderSvc{})

	orderID := uuid.New()
	variantID := uuid.New()
	data, _ := json.Marshal(OrderCreatedPayload{
		OrderID: orderID,
		LineItems: []saga.OrderItem{
			{VariantID: variantID, Qty: 2, UnitPriceCents: 1500},
		},
	})

	if err := consumer.Process(context.Background(), EventOrderCreated, data); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(orch.calls) != 1 || orch.calls[0].sagaType != enums.SagaTypeOrderCreation {
		t.Fatalf("expected one order_creation execution, got %+v", orch.calls)
	}
	state := orch.calls[0].state
	if state.OrderID != orderID || len(state.Items) != 1 || state.Items[0].VariantID != variantID {
		t.Fatalf("saga state not built from payload: %+v", state)
	}
}

func TestProcessOrderCancelledStartsCancellationSaga(t *testing.T) {
	t.Parallel()

	orch := &fakeOrchestrator{}
	consumer := newTestConsumer(t, orch, &fakeReservationSvc{}, &fakeOrderSvc{})

	orderID := uuid.New()
	data, _ := json.Marshal(OrderRefPayload{OrderID: orderID})

	if err := consumer.Process(context.Background(), EventOrderCancelled, data); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(orch.calls) != 1 || orch.calls[0].sagaType != enums.SagaTypeOrderCancellation {
		t.Fatalf("expected one order_cancellation execution, got %+v", orch.calls)
	}
}

func TestProcessOrderFulfilledTransitionsOrder(t *testing.T) {
	t.Parallel()

	resSvc := &fakeReservationSvc{fulfillCount: 2}
	orderSvc := &fakeOrderSvc{}
	consumer := newTestConsumer(t, &fakeOrchestrator{}, resSvc, orderSvc)

	orderID := uuid.New()
	data, _ := json.Marshal(OrderRefPayload{OrderID: orderID})

	if err := consumer.Process(context.Background(), EventOrderFulfilled, data); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(resSvc.fulfilled) != 1 || resSvc.fulfilled[0] != orderID {
		t.Fatalf("expected fulfill call, got %+v", resSvc.fulfilled)
	}
	if len(orderSvc.transitions) != 1 {
		t.Fatalf("expected one transition, got %+v", orderSvc.transitions)
	}
	if orderSvc.transitions[0].NewFulfillment == nil ||
		*orderSvc.transitions[0].NewFulfillment != enums.FulfillmentStatusFulfilled {
		t.Fatalf("expected fulfillment transition, got %+v", orderSvc.transitions[0])
	}
}

func TestProcessOrderFulfilledNoopWhenNothingActive(t *testing.T) {
	t.Parallel()

	resSvc := &fakeReservationSvc{fulfillCount: 0}
	orderSvc := &fakeOrderSvc{}
	consumer := newTestConsumer(t, &fakeOrchestrator{}, resSvc, orderSvc)

	data, _ := json.Marshal(OrderRefPayload{OrderID: uuid.New()})
	if err := consumer.Process(context.Background(), EventOrderFulfilled, data); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(orderSvc.transitions) != 0 {
		t.Fatalf("no transition expected for an already fulfilled order, got %+v", orderSvc.transitions)
	}
}

func TestProcessSkipsUnknownEventTypes(t *testing.T) {
	t.Parallel()

	orch := &fakeOrchestrator{}
	consumer := newTestConsumer(t, orch, &fakeReservationSvc{}, &fakeOrderSvc{})

	if err := consumer.Process(context.Background(), "inventory.adjusted", []byte(`{}`)); err != nil {
		t.Fatalf("unknown events must ack cleanly: %v", err)
	}
	if len(orch.calls) != 0 {
		t.Fatalf("unknown events must not start sagas: %+v", orch.calls)
	}
}

func TestProcessRejectsMalformedPayloads(t *testing.T) {
	t.Parallel()

	consumer := newTestConsumer(t, &fakeOrchestrator{}, &fakeReservationSvc{}, &fakeOrderSvc{})

	if err := consumer.Process(context.Background(), EventOrderCreated, []byte(`not json`)); err == nil {
		t.Fatal("malformed payload must error")
	}
	if err := consumer.Process(context.Background(), EventOrderCreated, []byte(`{}`)); err == nil {
		t.Fatal("missing order id must error")
	}
}
