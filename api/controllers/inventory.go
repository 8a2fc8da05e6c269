package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillz-backend/api/responses"
	"github.com/angelmondragon/fulfillz-backend/api/validators"
	"github.com/angelmondragon/fulfillz-backend/internal/inventory"
	"github.com/angelmondragon/fulfillz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

const defaultAdjustmentHistoryLimit = 50

type inventoryAdjustRequest struct {
	VariantID  string  `json:"variant_id" validate:"required,uuid"`
	LocationID string  `json:"location_id" validate:"required,uuid"`
	Delta      int     `json:"delta" validate:"required"`
	Reason     string  `json:"reason" validate:"required"`
	Notes      *string `json:"notes,omitempty"`
}

func (r inventoryAdjustRequest) toInput() (inventory.AdjustInput, error) {
	reason, err := enums.ParseAdjustmentReason(r.Reason)
	if err != nil {
		return inventory.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment reason")
	}
	variantID, err := uuid.Parse(r.VariantID)
	if err != nil {
		return inventory.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id")
	}
	locationID, err := uuid.Parse(r.LocationID)
	if err != nil {
		return inventory.AdjustInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location id")
	}
	return inventory.AdjustInput{
		VariantID:  variantID,
		LocationID: locationID,
		Delta:      r.Delta,
		Reason:     reason,
		Notes:      r.Notes,
	}, nil
}

// InventoryAdjust applies a signed manual change to available stock.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload inventoryAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Adjust(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

type inventoryTransferRequest struct {
	VariantID      string `json:"variant_id" validate:"required,uuid"`
	FromLocationID string `json:"from_location_id" validate:"required,uuid"`
	ToLocationID   string `json:"to_location_id" validate:"required,uuid"`
	Qty            int    `json:"qty" validate:"required,min=1"`
}

// InventoryTransfer moves available stock between two locations.
func InventoryTransfer(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload inventoryTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variantID, err := uuid.Parse(payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}
		fromID, err := uuid.Parse(payload.FromLocationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from location id"))
			return
		}
		toID, err := uuid.Parse(payload.ToLocationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to location id"))
			return
		}

		if err := svc.Transfer(r.Context(), inventory.TransferInput{
			VariantID:      variantID,
			FromLocationID: fromID,
			ToLocationID:   toID,
			Qty:            payload.Qty,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

// InventoryByVariant returns stock levels across all locations for a variant.
func InventoryByVariant(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.GetByVariant(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// InventoryByLocation returns stock levels for all variants at a location.
func InventoryByLocation(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		locationID, err := parseUUIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.GetByLocation(r.Context(), locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, items)
	}
}

// InventoryItemDetail returns a single (variant, location) stock row.
func InventoryItemDetail(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseUUIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.GetItem(r.Context(), variantID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// InventoryAdjustmentHistory returns the audit trail for a (variant, location) pair.
func InventoryAdjustmentHistory(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseUUIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit := defaultAdjustmentHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			limit = parsed
		}

		rows, err := svc.ListAdjustments(r.Context(), variantID, locationID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rows)
	}
}

type thresholdUpdateRequest struct {
	Threshold *int `json:"threshold" validate:"omitempty,min=0"`
}

// InventoryUpdateThreshold sets or clears the per-item low stock threshold.
// A null threshold falls back to the store-wide default.
func InventoryUpdateThreshold(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := parseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseUUIDParam(r, "locationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload thresholdUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetThreshold(r.Context(), variantID, locationID, payload.Threshold); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
