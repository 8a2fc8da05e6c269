package saga

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderItem is one line of the order a saga operates on.
type OrderItem struct {
	VariantID           uuid.UUID  `json:"variantId"`
	Qty                 int        `json:"qty"`
	UnitPriceCents      int64      `json:"unitPriceCents"`
	PreferredLocationID *uuid.UUID `json:"preferredLocationId,omitempty"`
}

// State is the replayable context threaded through a saga run. Step results
// are keyed by step name so compensations and later steps can look them up
// without closures capturing mutable locals.
type State struct {
	SagaID  uuid.UUID
	OrderID uuid.UUID
	Items   []OrderItem
	Results map[string]json.RawMessage
}

// Result returns the recorded result of a completed step, unmarshalled into out.
func (s *State) Result(step string, out any) error {
	raw, ok := s.Results[step]
	if !ok {
		return fmt.Errorf("no recorded result for step %q", step)
	}
	return json.Unmarshal(raw, out)
}

func (s *State) setResult(step string, raw json.RawMessage) {
	if s.Results == nil {
		s.Results = make(map[string]json.RawMessage)
	}
	s.Results[step] = raw
}

// HandlerFunc executes a step's unit of work and returns its serializable result.
type HandlerFunc func(ctx context.Context, st *State) (any, error)

// CompensationFunc undoes a completed step's effect.
type CompensationFunc func(ctx context.Context, st *State) error

// Step pairs a named unit of work with its optional compensation.
type Step struct {
	Name       string
	Run        HandlerFunc
	Compensate CompensationFunc
}

// Definition is a named, ordered list of registered step names.
type Definition struct {
	Type  enums.SagaType
	Steps []string
}

// Registry maps step names to their implementations and saga types to their
// step ordering. Lookups by name survive process restarts, unlike closures.
type Registry struct {
	steps       map[string]Step
	definitions map[enums.SagaType]Definition
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{
		steps:       make(map[string]Step),
		definitions: make(map[enums.SagaType]Definition),
	}
}

// RegisterStep adds a step implementation under its name.
func (r *Registry) RegisterStep(step Step) error {
	if step.Name == "" {
		return fmt.Errorf("step name required")
	}
	if step.Run == nil {
		return fmt.Errorf("step %q has no handler", step.Name)
	}
	if _, exists := r.steps[step.Name]; exists {
		return fmt.Errorf("step %q already registered", step.Name)
	}
	r.steps[step.Name] = step
	return nil
}

// RegisterDefinition adds a saga definition after verifying every step exists.
func (r *Registry) RegisterDefinition(def Definition) error {
	if !def.Type.IsValid() {
		return fmt.Errorf("invalid saga type %q", def.Type)
	}
	if len(def.Steps) == 0 {
		return fmt.Errorf("saga %q has no steps", def.Type)
	}
	for _, name := range def.Steps {
		if _, ok := r.steps[name]; !ok {
			return fmt.Errorf("saga %q references unregistered step %q", def.Type, name)
		}
	}
	if _, exists := r.definitions[def.Type]; exists {
		return fmt.Errorf("saga %q already registered", def.Type)
	}
	r.definitions[def.Type] = def
	return nil
}

// Definition returns the registered definition for the saga type.
func (r *Registry) Definition(sagaType enums.SagaType) (Definition, error) {
	def, ok := r.definitions[sagaType]
	if !ok {
		return Definition{}, fmt.Errorf("no saga registered for type %q", sagaType)
	}
	return def, nil
}

// Step returns the registered step for the given name.
func (r *Registry) Step(name string) (Step, error) {
	step, ok := r.steps[name]
	if !ok {
		return Step{}, fmt.Errorf("no step registered for name %q", name)
	}
	return step, nil
}
