package saga

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillz-backend/pkg/types"
)

type memRepo struct {
	execs map[uuid.UUID]models.SagaExecution
}

func newMemRepo() *memRepo {
	return &memRepo{execs: make(map[uuid.UUID]models.SagaExecution)}
}

func (m *memRepo) CreateExecution(_ context.Context, exec *models.SagaExecution) (*models.SagaExecution, error) {
	if exec.ID == uuid.Nil {
		exec.ID = uuid.New()
	}
	m.execs[exec.ID] = *exec
	return exec, nil
}

func (m *memRepo) SaveExecution(_ context.Context, exec *models.SagaExecution) error {
	m.execs[exec.ID] = *exec
	return nil
}

func (m *memRepo) FindExecution(_ context.Context, id uuid.UUID) (*models.SagaExecution, error) {
	exec, ok := m.execs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &exec, nil
}

func (m *memRepo) FindOpenByOrder(_ context.Context, sagaType enums.SagaType, orderID uuid.UUID) (*models.SagaExecution, error) {
	for _, exec := range m.execs {
		if exec.SagaType == sagaType && exec.OrderID == orderID && exec.Status == enums.SagaStatusInProgress {
			found := exec
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.SagaExecution, error) {
	var rows []models.SagaExecution
	for _, exec := range m.execs {
		if exec.OrderID == orderID {
			rows = append(rows, exec)
		}
	}
	return rows, nil
}

type terminalOutbox struct {
	events []outbox.DomainEvent
}

func (o *terminalOutbox) EmitIfNotExists(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		panic("emit called without transaction")
	}
	o.events = append(o.events, event)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

func newTestOrchestrator(t *testing.T, reg *Registry, repo Repository) (Orchestrator, *terminalOutbox) {
	t.Helper()
	ob := &terminalOutbox{}
	orch, err := NewOrchestrator(reg, repo, stubTx{}, ob, metrics.NewSagaMetrics(nil), logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return orch, ob
}

func mustRegister(t *testing.T, reg *Registry, steps []Step, sagaType enums.SagaType) {
	t.Helper()
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		if err := reg.RegisterStep(step); err != nil {
			t.Fatalf("register step %s: %v", step.Name, err)
		}
		names = append(names, step.Name)
	}
	if err := reg.RegisterDefinition(Definition{Type: sagaType, Steps: names}); err != nil {
		t.Fatalf("register definition: %v", err)
	}
}

func TestExecuteRunsAllStepsInOrder(t *testing.T) {
	t.Parallel()

	var ran []string
	step := func(name string) Step {
		return Step{
			Name: name,
			Run: func(_ context.Context, _ *State) (any, error) {
				ran = append(ran, name)
				return map[string]string{"step": name}, nil
			},
		}
	}

	reg := NewRegistry()
	mustRegister(t, reg, []Step{step("one"), step("two"), step("three")}, enums.SagaTypeOrderCreation)
	repo := newMemRepo()
	orch, ob := newTestOrchestrator(t, reg, repo)

	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{OrderID: uuid.New()})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}
	if len(ran) != 3 || ran[0] != "one" || ran[1] != "two" || ran[2] != "three" {
		t.Fatalf("steps ran out of order: %v", ran)
	}
	if len(exec.Steps) != 3 {
		t.Fatalf("expected 3 step records, got %d", len(exec.Steps))
	}
	for _, record := range exec.Steps {
		if record.Status != string(enums.SagaStepStatusCompleted) || len(record.Result) == 0 {
			t.Fatalf("step record incomplete: %+v", record)
		}
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventSagaCompleted {
		t.Fatalf("expected saga.completed event, got %+v", ob.events)
	}
}

func TestExecuteCompensatesCompletedStepsInReverse(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("payment declined")
	var compensated []string
	comp := func(name string) CompensationFunc {
		return func(_ context.Context, _ *State) error {
			compensated = append(compensated, name)
			return nil
		}
	}

	steps := []Step{
		{Name: "one", Run: func(context.Context, *State) (any, error) { return nil, nil }, Compensate: comp("one")},
		{Name: "two", Run: func(context.Context, *State) (any, error) { return nil, nil }, Compensate: comp("two")},
		{Name: "three", Run: func(context.Context, *State) (any, error) { return nil, errBoom }},
	}

	reg := NewRegistry()
	mustRegister(t, reg, steps, enums.SagaTypeOrderCreation)
	repo := newMemRepo()
	orch, ob := newTestOrchestrator(t, reg, repo)

	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{OrderID: uuid.New()})
	if !errors.Is(err, errBoom) {
		t.Fatalf("original step error must be re-raised, got %v", err)
	}
	if exec.Status != enums.SagaStatusFailed {
		t.Fatalf("expected failed, got %s", exec.Status)
	}
	if len(compensated) != 2 || compensated[0] != "two" || compensated[1] != "one" {
		t.Fatalf("compensation out of order: %v", compensated)
	}
	if exec.LastError == nil || *exec.LastError != errBoom.Error() {
		t.Fatalf("last error not recorded: %v", exec.LastError)
	}

	last := exec.Steps[len(exec.Steps)-1]
	if last.Name != "three" || last.Status != string(enums.SagaStepStatusFailed) || last.Error == "" {
		t.Fatalf("failed step not recorded: %+v", last)
	}
	if len(exec.Compensations) != 2 || exec.Compensations[0].StepName != "two" {
		t.Fatalf("compensation log wrong: %+v", exec.Compensations)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventSagaFailed {
		t.Fatalf("expected saga.failed event, got %+v", ob.events)
	}
}

func TestExecuteCompensationFailureKeepsOriginalError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	steps := []Step{
		{
			Name: "one",
			Run:  func(context.Context, *State) (any, error) { return nil, nil },
			Compensate: func(context.Context, *State) error {
				return errors.New("undo failed")
			},
		},
		{Name: "two", Run: func(context.Context, *State) (any, error) { return nil, errBoom }},
	}

	reg := NewRegistry()
	mustRegister(t, reg, steps, enums.SagaTypeOrderCreation)
	orch, _ := newTestOrchestrator(t, reg, newMemRepo())

	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{OrderID: uuid.New()})
	if !errors.Is(err, errBoom) {
		t.Fatalf("compensation failure must not mask the step error, got %v", err)
	}
	if len(exec.Compensations) != 1 || exec.Compensations[0].Status != string(enums.SagaStepStatusFailed) {
		t.Fatalf("failed compensation not recorded: %+v", exec.Compensations)
	}
	if exec.Compensations[0].Error == "" {
		t.Fatal("compensation error text missing")
	}
}

func TestExecuteResumesOpenExecution(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	firstRuns := 0
	steps := []Step{
		{
			Name: "one",
			Run: func(_ context.Context, _ *State) (any, error) {
				firstRuns++
				return map[string]int{"value": 42}, nil
			},
		},
		{
			Name: "two",
			Run: func(_ context.Context, st *State) (any, error) {
				var prior map[string]int
				if err := st.Result("one", &prior); err != nil {
					return nil, err
				}
				return map[string]int{"doubled": prior["value"] * 2}, nil
			},
		},
	}

	reg := NewRegistry()
	mustRegister(t, reg, steps, enums.SagaTypeOrderCreation)
	repo := newMemRepo()

	// Seed an open execution that already completed step one.
	seeded, err := repo.CreateExecution(context.Background(), &models.SagaExecution{
		SagaType: enums.SagaTypeOrderCreation,
		OrderID:  orderID,
		Status:   enums.SagaStatusInProgress,
		Steps: []types.SagaStepRecord{{
			Name:   "one",
			Status: string(enums.SagaStepStatusCompleted),
			Result: []byte(`{"value":42}`),
		}},
	})
	if err != nil {
		t.Fatalf("seed execution: %v", err)
	}

	orch, _ := newTestOrchestrator(t, reg, repo)
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{OrderID: orderID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.ID != seeded.ID {
		t.Fatalf("expected resume of %s, got new execution %s", seeded.ID, exec.ID)
	}
	if firstRuns != 0 {
		t.Fatal("completed step must not re-run on resume")
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}

	var doubled map[string]int
	last := exec.Steps[len(exec.Steps)-1]
	if err := json.Unmarshal(last.Result, &doubled); err != nil {
		t.Fatalf("decode step result: %v", err)
	}
	if doubled["doubled"] != 84 {
		t.Fatalf("resumed step did not see prior result: %+v", doubled)
	}
}

// raceRepo simulates a concurrent delivery whose execution row commits between
// our open-execution lookup and our insert.
type raceRepo struct {
	*memRepo
	winner *models.SagaExecution
	finds  int
}

func (r *raceRepo) FindOpenByOrder(ctx context.Context, sagaType enums.SagaType, orderID uuid.UUID) (*models.SagaExecution, error) {
	r.finds++
	if r.finds == 1 {
		return nil, nil
	}
	return r.memRepo.FindOpenByOrder(ctx, sagaType, orderID)
}

func (r *raceRepo) CreateExecution(ctx context.Context, _ *models.SagaExecution) (*models.SagaExecution, error) {
	if _, err := r.memRepo.CreateExecution(ctx, r.winner); err != nil {
		return nil, err
	}
	return nil, errors.New(`duplicate key value violates unique constraint "ux_saga_executions_open"`)
}

func TestExecuteConcurrentStartResumesWinner(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	firstRuns := 0
	steps := []Step{
		{
			Name: "one",
			Run: func(context.Context, *State) (any, error) {
				firstRuns++
				return nil, nil
			},
		},
		{Name: "two", Run: func(context.Context, *State) (any, error) { return nil, nil }},
	}

	reg := NewRegistry()
	mustRegister(t, reg, steps, enums.SagaTypeOrderCreation)

	winner := &models.SagaExecution{
		ID:       uuid.New(),
		SagaType: enums.SagaTypeOrderCreation,
		OrderID:  orderID,
		Status:   enums.SagaStatusInProgress,
		Steps: []types.SagaStepRecord{{
			Name:   "one",
			Status: string(enums.SagaStepStatusCompleted),
			Result: []byte(`{}`),
		}},
	}
	repo := &raceRepo{memRepo: newMemRepo(), winner: winner}

	orch, _ := newTestOrchestrator(t, reg, repo)
	exec, err := orch.Execute(context.Background(), enums.SagaTypeOrderCreation, &State{OrderID: orderID})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.ID != winner.ID {
		t.Fatalf("expected to resume the winner %s, got %s", winner.ID, exec.ID)
	}
	if firstRuns != 0 {
		t.Fatal("the winner's completed step must not re-run")
	}
	if exec.Status != enums.SagaStatusCompleted {
		t.Fatalf("expected completed, got %s", exec.Status)
	}
	if len(repo.execs) != 1 {
		t.Fatalf("expected a single execution row, got %d", len(repo.execs))
	}
}

func TestExecuteUnknownSagaType(t *testing.T) {
	t.Parallel()

	orch, _ := newTestOrchestrator(t, NewRegistry(), newMemRepo())
	_, err := orch.Execute(context.Background(), enums.SagaTypeOrderCancellation, &State{OrderID: uuid.New()})
	if err == nil {
		t.Fatal("unregistered saga type must be rejected")
	}
}
