package orders

import (
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
)

// The two status axes are independent directed graphs. A transition request may
// touch either axis or both; an untouched axis always validates trivially.

var financialTransitions = map[enums.OrderFinancialStatus][]enums.OrderFinancialStatus{
	enums.FinancialStatusPending: {
		enums.FinancialStatusAuthorized,
		enums.FinancialStatusPaid,
		enums.FinancialStatusVoided,
	},
	enums.FinancialStatusAuthorized: {
		enums.FinancialStatusPaid,
		enums.FinancialStatusVoided,
	},
	enums.FinancialStatusPaid: {
		enums.FinancialStatusPartiallyRefunded,
		enums.FinancialStatusRefunded,
	},
	enums.FinancialStatusPartiallyRefunded: {
		enums.FinancialStatusRefunded,
	},
	enums.FinancialStatusRefunded: {},
	enums.FinancialStatusVoided:   {},
}

var fulfillmentTransitions = map[enums.OrderFulfillmentStatus][]enums.OrderFulfillmentStatus{
	enums.FulfillmentStatusUnfulfilled: {
		enums.FulfillmentStatusPartiallyFulfilled,
		enums.FulfillmentStatusFulfilled,
	},
	enums.FulfillmentStatusPartiallyFulfilled: {
		enums.FulfillmentStatusFulfilled,
	},
	enums.FulfillmentStatusFulfilled: {},
}

// ValidFinancialTransitions returns the financial statuses reachable from current.
func ValidFinancialTransitions(current enums.OrderFinancialStatus) []enums.OrderFinancialStatus {
	return financialTransitions[current]
}

// ValidFulfillmentTransitions returns the fulfillment statuses reachable from current.
func ValidFulfillmentTransitions(current enums.OrderFulfillmentStatus) []enums.OrderFulfillmentStatus {
	return fulfillmentTransitions[current]
}

// ValidateTransition rejects any edge not present in the transition tables.
// Nil axis arguments leave that axis unchanged.
func ValidateTransition(currentFinancial enums.OrderFinancialStatus, currentFulfillment enums.OrderFulfillmentStatus, newFinancial *enums.OrderFinancialStatus, newFulfillment *enums.OrderFulfillmentStatus) error {
	if newFinancial == nil && newFulfillment == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transition must change at least one status axis")
	}
	if newFinancial != nil && !containsFinancial(financialTransitions[currentFinancial], *newFinancial) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition,
			"financial status %s cannot move to %s (allowed: %v)",
			currentFinancial, *newFinancial, financialTransitions[currentFinancial])
	}
	if newFulfillment != nil && !containsFulfillment(fulfillmentTransitions[currentFulfillment], *newFulfillment) {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition,
			"fulfillment status %s cannot move to %s (allowed: %v)",
			currentFulfillment, *newFulfillment, fulfillmentTransitions[currentFulfillment])
	}
	return nil
}

// CanCancel reports whether the order may still be cancelled.
func CanCancel(financial enums.OrderFinancialStatus) bool {
	switch financial {
	case enums.FinancialStatusRefunded, enums.FinancialStatusVoided:
		return false
	default:
		return true
	}
}

// CanRefund reports whether a refund is applicable to the current financial status.
func CanRefund(financial enums.OrderFinancialStatus) bool {
	switch financial {
	case enums.FinancialStatusPaid, enums.FinancialStatusPartiallyRefunded:
		return true
	default:
		return false
	}
}

// CanFulfill reports whether the order is financially ready to ship.
func CanFulfill(financial enums.OrderFinancialStatus) bool {
	switch financial {
	case enums.FinancialStatusAuthorized, enums.FinancialStatusPaid:
		return true
	default:
		return false
	}
}

func containsFinancial(haystack []enums.OrderFinancialStatus, needle enums.OrderFinancialStatus) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}

func containsFulfillment(haystack []enums.OrderFulfillmentStatus, needle enums.OrderFulfillmentStatus) bool {
	for _, candidate := range haystack {
		if candidate == needle {
			return true
		}
	}
	return false
}
