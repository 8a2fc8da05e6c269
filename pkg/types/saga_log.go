package types

import (
	"encoding/json"
	"time"
)

// SagaStepRecord captures the outcome of one executed step.
type SagaStepRecord struct {
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// SagaStepLog is the append-only list of step records stored as jsonb.
type SagaStepLog []SagaStepRecord

// Completed reports whether a step with the given name already completed,
// which lets re-entrant executions skip work that is already done.
func (l SagaStepLog) Completed(name string) bool {
	for _, record := range l {
		if record.Name == name && record.Status == "completed" {
			return true
		}
	}
	return false
}

// SagaCompensationRecord captures the outcome of one compensation run.
type SagaCompensationRecord struct {
	StepName   string    `json:"stepName"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SagaCompensationLog is the append-only list of compensation records.
type SagaCompensationLog []SagaCompensationRecord
