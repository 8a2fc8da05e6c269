package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/api/responses"
	"github.com/angelmondragon/fulfillz-backend/api/validators"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

type reserveLineItem struct {
	VariantID           string  `json:"variant_id" validate:"required,uuid"`
	Qty                 int     `json:"qty" validate:"required,min=1"`
	PreferredLocationID *string `json:"preferred_location_id,omitempty" validate:"omitempty,uuid"`
}

type reserveRequest struct {
	LineItems []reserveLineItem `json:"line_items" validate:"required,min=1,dive"`
}

func (r reserveRequest) toLineItems() ([]reservations.LineItem, error) {
	items := make([]reservations.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		variantID, err := uuid.Parse(li.VariantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
		}
		item := reservations.LineItem{VariantID: variantID, Qty: li.Qty}
		if li.PreferredLocationID != nil {
			preferred, err := uuid.Parse(*li.PreferredLocationID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid preferred location id")
			}
			item.PreferredLocationID = &preferred
		}
		items = append(items, item)
	}
	return items, nil
}

// ReservationReserve reserves stock for every line item of an order. On a
// partial failure earlier reservations are kept and the error is returned,
// so callers decide whether to release or retry.
func ReservationReserve(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reserveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := payload.toLineItems()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reserved, err := svc.ReserveForOrder(r.Context(), orderID, items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, reserved)
	}
}

// ReservationRelease returns all active reservations for an order to
// available stock. Orders without active reservations are a no-op.
func ReservationRelease(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		released, err := svc.ReleaseForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"released": released})
	}
}

// ReservationFulfill converts all active reservations for an order into
// fulfilled stock movements.
func ReservationFulfill(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fulfilled, err := svc.FulfillForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"fulfilled": fulfilled})
	}
}

// ReservationList returns every reservation row for an order.
func ReservationList(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}
