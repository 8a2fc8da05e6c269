package enums

import "fmt"

// ReservationStatus maps to the reservation_status enum in Postgres.
// ACTIVE is the only non-terminal state; a reservation leaves it at most once.
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusReleased  ReservationStatus = "released"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusActive,
	ReservationStatusReleased,
	ReservationStatusFulfilled,
}

// IsValid reports whether the value matches the canonical enum.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a reservation can no longer change state.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusReleased || s == ReservationStatusFulfilled
}

// ParseReservationStatus converts raw input into ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
