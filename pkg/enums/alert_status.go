package enums

import "fmt"

// AlertStatus maps to the alert_status enum in Postgres.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusResolved  AlertStatus = "resolved"
	AlertStatusDismissed AlertStatus = "dismissed"
)

var validAlertStatuses = []AlertStatus{
	AlertStatusActive,
	AlertStatusResolved,
	AlertStatusDismissed,
}

// IsValid reports whether the value matches the canonical enum.
func (s AlertStatus) IsValid() bool {
	for _, candidate := range validAlertStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAlertStatus converts raw input into AlertStatus.
func ParseAlertStatus(value string) (AlertStatus, error) {
	for _, candidate := range validAlertStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert status %q", value)
}
