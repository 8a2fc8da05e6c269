package reservations

import (
	"testing"

	"github.com/google/uuid"
)

func TestPickLocationPreferredWinsWhenSufficient(t *testing.T) {
	t.Parallel()

	preferred := uuid.New()
	other := uuid.New()
	candidates := []LocationCandidate{
		{LocationID: other, Priority: 10, AvailableQty: 50},
		{LocationID: preferred, Priority: 1, AvailableQty: 5},
	}

	got, ok := PickLocation(candidates, 5, &preferred)
	if !ok || got != preferred {
		t.Fatalf("expected preferred location, got %s ok=%v", got, ok)
	}
}

func TestPickLocationFallsBackToPriorityWhenPreferredShort(t *testing.T) {
	t.Parallel()

	preferred := uuid.New()
	high := uuid.New()
	low := uuid.New()
	candidates := []LocationCandidate{
		{LocationID: low, Priority: 1, AvailableQty: 20},
		{LocationID: preferred, Priority: 5, AvailableQty: 2},
		{LocationID: high, Priority: 9, AvailableQty: 20},
	}

	got, ok := PickLocation(candidates, 10, &preferred)
	if !ok || got != high {
		t.Fatalf("expected highest priority fallback, got %s ok=%v", got, ok)
	}
}

func TestPickLocationSkipsHighPriorityWithoutStock(t *testing.T) {
	t.Parallel()

	high := uuid.New()
	mid := uuid.New()
	candidates := []LocationCandidate{
		{LocationID: high, Priority: 9, AvailableQty: 1},
		{LocationID: mid, Priority: 4, AvailableQty: 8},
	}

	got, ok := PickLocation(candidates, 6, nil)
	if !ok || got != mid {
		t.Fatalf("expected mid priority location, got %s ok=%v", got, ok)
	}
}

func TestPickLocationNoFit(t *testing.T) {
	t.Parallel()

	candidates := []LocationCandidate{
		{LocationID: uuid.New(), Priority: 9, AvailableQty: 3},
		{LocationID: uuid.New(), Priority: 2, AvailableQty: 4},
	}

	if _, ok := PickLocation(candidates, 5, nil); ok {
		t.Fatal("expected no location to fit")
	}
	if _, ok := PickLocation(nil, 1, nil); ok {
		t.Fatal("expected no fit on empty candidates")
	}
	if _, ok := PickLocation(candidates, 0, nil); ok {
		t.Fatal("expected no fit on zero quantity")
	}
}

func TestPickLocationDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	a := uuid.New()
	b := uuid.New()
	candidates := []LocationCandidate{
		{LocationID: a, Priority: 1, AvailableQty: 10},
		{LocationID: b, Priority: 5, AvailableQty: 10},
	}

	if _, ok := PickLocation(candidates, 1, nil); !ok {
		t.Fatal("expected a fit")
	}
	if candidates[0].LocationID != a || candidates[1].LocationID != b {
		t.Fatalf("candidate slice order changed: %+v", candidates)
	}
}
