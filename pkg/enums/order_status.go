package enums

import "fmt"

// OrderFinancialStatus maps to the order_financial_status enum in Postgres.
type OrderFinancialStatus string

const (
	FinancialStatusPending           OrderFinancialStatus = "pending"
	FinancialStatusAuthorized        OrderFinancialStatus = "authorized"
	FinancialStatusPaid              OrderFinancialStatus = "paid"
	FinancialStatusPartiallyRefunded OrderFinancialStatus = "partially_refunded"
	FinancialStatusRefunded          OrderFinancialStatus = "refunded"
	FinancialStatusVoided            OrderFinancialStatus = "voided"
)

var validFinancialStatuses = []OrderFinancialStatus{
	FinancialStatusPending,
	FinancialStatusAuthorized,
	FinancialStatusPaid,
	FinancialStatusPartiallyRefunded,
	FinancialStatusRefunded,
	FinancialStatusVoided,
}

// IsValid reports whether the value matches the canonical enum.
func (s OrderFinancialStatus) IsValid() bool {
	for _, candidate := range validFinancialStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderFinancialStatus converts raw input into OrderFinancialStatus.
func ParseOrderFinancialStatus(value string) (OrderFinancialStatus, error) {
	for _, candidate := range validFinancialStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid financial status %q", value)
}

// OrderFulfillmentStatus maps to the order_fulfillment_status enum in Postgres.
type OrderFulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled        OrderFulfillmentStatus = "unfulfilled"
	FulfillmentStatusPartiallyFulfilled OrderFulfillmentStatus = "partially_fulfilled"
	FulfillmentStatusFulfilled          OrderFulfillmentStatus = "fulfilled"
)

var validFulfillmentStatuses = []OrderFulfillmentStatus{
	FulfillmentStatusUnfulfilled,
	FulfillmentStatusPartiallyFulfilled,
	FulfillmentStatusFulfilled,
}

// IsValid reports whether the value matches the canonical enum.
func (s OrderFulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderFulfillmentStatus converts raw input into OrderFulfillmentStatus.
func ParseOrderFulfillmentStatus(value string) (OrderFulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
