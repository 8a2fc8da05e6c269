package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/fulfillz-backend/pkg/db"
	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillz-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillz-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Orchestrator runs registered sagas, persisting every step outcome and
// compensating completed steps in reverse order when one fails.
type Orchestrator interface {
	Execute(ctx context.Context, sagaType enums.SagaType, st *State) (*models.SagaExecution, error)
	Executions(ctx context.Context, orderID uuid.UUID) ([]models.SagaExecution, error)
}

type orchestrator struct {
	registry *Registry
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	metrics  *metrics.SagaMetrics
	logg     *logger.Logger
}

// NewOrchestrator builds the saga orchestrator with the required dependencies.
func NewOrchestrator(registry *Registry, repo Repository, tx txRunner, publisher outboxPublisher, sagaMetrics *metrics.SagaMetrics, logg *logger.Logger) (Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("saga registry required")
	}
	if repo == nil {
		return nil, fmt.Errorf("saga repository required")
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
	return &orchestrator{
		registry: registry,
		repo:     repo,
		tx:       tx,
		outbox:   publisher,
		metrics:  sagaMetrics,
		logg:     logg,
	}, nil
}

// Execute runs the saga to a terminal status. A still-open execution for the
// same (type, order) is resumed: steps already logged as completed are skipped
// and their recorded results reloaded, so retries never re-run finished work.
func (o *orchestrator) Execute(ctx context.Context, sagaType enums.SagaType, st *State) (*models.SagaExecution, error) {
	if st == nil || st.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "saga state with order id required")
	}
	def, err := o.registry.Definition(sagaType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "resolve saga definition")
	}

	exec, err := o.repo.FindOpenByOrder(ctx, sagaType, st.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find open saga execution")
	}
	if exec == nil {
		exec, err = o.repo.CreateExecution(ctx, &models.SagaExecution{
			SagaType: sagaType,
			OrderID:  st.OrderID,
			Status:   enums.SagaStatusInProgress,
		})
		if err != nil {
			// A concurrent delivery opened the execution first; resume it.
			if db.IsUniqueViolation(err, "ux_saga_executions_open") {
				open, findErr := o.repo.FindOpenByOrder(ctx, sagaType, st.OrderID)
				if findErr != nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "reload open saga execution")
				}
				if open == nil {
					return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create saga execution")
				}
				exec = open
			} else {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create saga execution")
			}
		}
	}

	st.SagaID = exec.ID
	ctx = o.logg.WithSagaID(o.logg.WithOrderID(ctx, st.OrderID.String()), exec.ID.String())
	started := time.Now()

	for _, record := range exec.Steps {
		if record.Status == string(enums.SagaStepStatusCompleted) && len(record.Result) > 0 {
			st.setResult(record.Name, record.Result)
		}
	}

	completed := make([]Step, 0, len(def.Steps))
	for _, name := range def.Steps {
		step, err := o.registry.Step(name)
		if err != nil {
			return exec, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve saga step")
		}
		if exec.Steps.Completed(name) {
			completed = append(completed, step)
			continue
		}

		result, runErr := step.Run(ctx, st)
		if runErr != nil {
			o.metrics.IncStepFailed(string(sagaType), name)
			return o.fail(ctx, exec, st, completed, name, runErr, started)
		}

		raw, err := json.Marshal(result)
		if err != nil {
			o.metrics.IncStepFailed(string(sagaType), name)
			return o.fail(ctx, exec, st, completed, name,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal step result"), started)
		}
		st.setResult(name, raw)
		exec.Steps = append(exec.Steps, types.SagaStepRecord{
			Name:       name,
			Status:     string(enums.SagaStepStatusCompleted),
			Result:     raw,
			OccurredAt: time.Now(),
		})
		if err := o.repo.SaveExecution(ctx, exec); err != nil {
			return exec, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist saga step")
		}
		completed = append(completed, step)
	}

	exec.Status = enums.SagaStatusCompleted
	if err := o.repo.SaveExecution(ctx, exec); err != nil {
		return exec, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark saga completed")
	}
	o.metrics.IncCompleted(string(sagaType))
	o.metrics.ObserveDuration(string(sagaType), time.Since(started))
	o.emitTerminalEvent(ctx, exec, "")
	o.logg.Info(ctx, "saga completed")
	return exec, nil
}

// fail records the failed step, compensates completed steps in reverse order,
// marks the execution failed and re-raises the original step error.
func (o *orchestrator) fail(ctx context.Context, exec *models.SagaExecution, st *State, completed []Step, failedStep string, cause error, started time.Time) (*models.SagaExecution, error) {
	sagaType := string(exec.SagaType)

	exec.Steps = append(exec.Steps, types.SagaStepRecord{
		Name:       failedStep,
		Status:     string(enums.SagaStepStatusFailed),
		Error:      cause.Error(),
		OccurredAt: time.Now(),
	})
	exec.Status = enums.SagaStatusCompensating
	if err := o.repo.SaveExecution(ctx, exec); err != nil {
		o.logg.Error(ctx, "persist saga failure", err)
	}
	o.logg.Error(o.logg.WithField(ctx, "step", failedStep), "saga step failed, compensating", cause)

	var compErrs error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		record := types.SagaCompensationRecord{
			StepName:   step.Name,
			Status:     string(enums.SagaStepStatusCompleted),
			OccurredAt: time.Now(),
		}
		if err := step.Compensate(ctx, st); err != nil {
			record.Status = string(enums.SagaStepStatusFailed)
			record.Error = err.Error()
			compErrs = multierr.Append(compErrs,
				pkgerrors.Wrap(pkgerrors.CodeCompensation, err, "compensate "+step.Name))
			o.metrics.IncCompensation(sagaType, step.Name, "failure")
			o.logg.Error(o.logg.WithField(ctx, "step", step.Name), "saga compensation failed", err)
		} else {
			o.metrics.IncCompensation(sagaType, step.Name, "success")
		}
		exec.Compensations = append(exec.Compensations, record)
		if err := o.repo.SaveExecution(ctx, exec); err != nil {
			o.logg.Error(ctx, "persist saga compensation", err)
		}
	}
	if compErrs != nil {
		// Best-effort compensation: surfaced to operators, never suppresses the
		// original step error.
		o.logg.Error(ctx, "saga compensation incomplete", compErrs)
	}

	exec.Status = enums.SagaStatusFailed
	lastError := cause.Error()
	exec.LastError = &lastError
	if err := o.repo.SaveExecution(ctx, exec); err != nil {
		o.logg.Error(ctx, "mark saga failed", err)
	}
	o.metrics.IncFailed(sagaType)
	o.metrics.ObserveDuration(sagaType, time.Since(started))
	o.emitTerminalEvent(ctx, exec, failedStep)
	return exec, cause
}

// emitTerminalEvent publishes saga.completed/saga.failed through the outbox.
// Failures here are logged, not propagated.
func (o *orchestrator) emitTerminalEvent(ctx context.Context, exec *models.SagaExecution, failedStep string) {
	event := outbox.DomainEvent{
		AggregateType: enums.AggregateSagaExecution,
		AggregateID:   exec.ID,
		Version:       1,
	}
	if exec.Status == enums.SagaStatusCompleted {
		event.EventType = enums.EventSagaCompleted
		event.Data = payloads.SagaCompletedEvent{
			SagaID:   exec.ID,
			SagaType: string(exec.SagaType),
			OrderID:  exec.OrderID,
		}
	} else {
		var lastError string
		if exec.LastError != nil {
			lastError = *exec.LastError
		}
		event.EventType = enums.EventSagaFailed
		event.Data = payloads.SagaFailedEvent{
			SagaID:     exec.ID,
			SagaType:   string(exec.SagaType),
			OrderID:    exec.OrderID,
			FailedStep: failedStep,
			Error:      lastError,
		}
	}
	err := o.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return o.outbox.EmitIfNotExists(ctx, tx, event)
	})
	if err != nil {
		o.logg.Error(ctx, "emit saga terminal event", err)
	}
}

func (o *orchestrator) Executions(ctx context.Context, orderID uuid.UUID) ([]models.SagaExecution, error) {
	rows, err := o.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list saga executions")
	}
	return rows, nil
}
