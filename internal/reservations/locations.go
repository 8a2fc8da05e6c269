package reservations

import (
	"sort"

	"github.com/google/uuid"
)

// LocationCandidate is a snapshot of one active location's stock for a variant.
type LocationCandidate struct {
	LocationID   uuid.UUID
	Priority     int
	AvailableQty int
}

// PickLocation selects the location a line item should be reserved against.
// The preferred location wins only when it alone covers the full quantity.
// Otherwise candidates are scanned by priority descending and the first one
// with enough available stock is chosen. Line items are never split across
// locations.
func PickLocation(candidates []LocationCandidate, qty int, preferred *uuid.UUID) (uuid.UUID, bool) {
	if qty <= 0 || len(candidates) == 0 {
		return uuid.Nil, false
	}

	if preferred != nil {
		for _, c := range candidates {
			if c.LocationID == *preferred && c.AvailableQty >= qty {
				return c.LocationID, true
			}
		}
	}

	sorted := make([]LocationCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	for _, c := range sorted {
		if c.AvailableQty >= qty {
			return c.LocationID, true
		}
	}
	return uuid.Nil, false
}
