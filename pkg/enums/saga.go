package enums

import "fmt"

// SagaType names a registered saga definition.
type SagaType string

const (
	SagaTypeOrderCreation     SagaType = "order_creation"
	SagaTypeOrderCancellation SagaType = "order_cancellation"
)

var validSagaTypes = []SagaType{
	SagaTypeOrderCreation,
	SagaTypeOrderCancellation,
}

// IsValid reports whether the value matches a registered saga type.
func (s SagaType) IsValid() bool {
	for _, candidate := range validSagaTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSagaType converts raw input into SagaType.
func ParseSagaType(value string) (SagaType, error) {
	for _, candidate := range validSagaTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid saga type %q", value)
}

// SagaStatus maps to the saga_status enum in Postgres.
type SagaStatus string

const (
	SagaStatusInProgress   SagaStatus = "in_progress"
	SagaStatusCompleted    SagaStatus = "completed"
	SagaStatusCompensating SagaStatus = "compensating"
	SagaStatusFailed       SagaStatus = "failed"
)

var validSagaStatuses = []SagaStatus{
	SagaStatusInProgress,
	SagaStatusCompleted,
	SagaStatusCompensating,
	SagaStatusFailed,
}

// IsValid reports whether the value matches the canonical enum.
func (s SagaStatus) IsValid() bool {
	for _, candidate := range validSagaStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the execution reached a final state.
func (s SagaStatus) IsTerminal() bool {
	return s == SagaStatusCompleted || s == SagaStatusFailed
}

// SagaStepStatus records the outcome of a single saga step.
type SagaStepStatus string

const (
	SagaStepStatusCompleted SagaStepStatus = "completed"
	SagaStepStatusFailed    SagaStepStatus = "failed"
)
