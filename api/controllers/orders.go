package controllers

import (
	"net/http"

	"github.com/angelmondragon/fulfillz-backend/api/responses"
	"github.com/angelmondragon/fulfillz-backend/api/validators"
	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

// OrderDetail returns the order's current status pair.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrderHistory returns the append-only status change log, oldest first.
func OrderHistory(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		history, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, history)
	}
}

type orderTransitionRequest struct {
	FinancialStatus   *string `json:"financial_status,omitempty"`
	FulfillmentStatus *string `json:"fulfillment_status,omitempty"`
	Comment           *string `json:"comment,omitempty"`
}

// OrderTransition moves one or both status axes, validated against the
// allowed transition tables.
func OrderTransition(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.TransitionInput{OrderID: orderID, Comment: payload.Comment}
		if payload.FinancialStatus != nil {
			parsed, err := enums.ParseOrderFinancialStatus(*payload.FinancialStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid financial status"))
				return
			}
			input.NewFinancial = &parsed
		}
		if payload.FulfillmentStatus != nil {
			parsed, err := enums.ParseOrderFulfillmentStatus(*payload.FulfillmentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment status"))
				return
			}
			input.NewFulfillment = &parsed
		}

		order, err := svc.ApplyTransition(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}
