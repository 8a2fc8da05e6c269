package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/fulfillz-backend/api/responses"
	"github.com/angelmondragon/fulfillz-backend/internal/alerts"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

const defaultAlertListLimit = 100

// AlertList returns low stock alerts, filtered by status (active by default).
func AlertList(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		status := enums.AlertStatusActive
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseAlertStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid alert status"))
				return
			}
			status = parsed
		}

		limit := defaultAlertListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = parsed
		}

		rows, err := svc.List(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

// AlertDismiss marks an active alert as dismissed so the monitor stops
// re-raising it for the current stock level.
func AlertDismiss(svc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		alertID, err := parseUUIDParam(r, "alertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Dismiss(r.Context(), alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
