package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/fulfillz-backend/internal/alerts"
	"github.com/angelmondragon/fulfillz-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const defaultLowStockThreshold = 5

type inventoryLister interface {
	ListItems(ctx context.Context) ([]models.InventoryItem, error)
}

type alertRaiser interface {
	Raise(ctx context.Context, input alerts.RaiseInput) (*models.LowStockAlert, bool, error)
	ResolveFor(ctx context.Context, variantID, locationID uuid.UUID) (bool, error)
}

// LowStockJobParams configure the low stock monitor.
type LowStockJobParams struct {
	Logger           *logger.Logger
	Inventory        inventoryLister
	Alerts           alertRaiser
	DefaultThreshold int
}

// NewLowStockJob builds the periodic low stock monitor. It only reads the
// ledger; alert rows are the sole thing it writes.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory lister required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alerts service required")
	}
	threshold := params.DefaultThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return &lowStockJob{
		logg:             params.Logger,
		inventory:        params.Inventory,
		alerts:           params.Alerts,
		defaultThreshold: threshold,
	}, nil
}

type lowStockJob struct {
	logg             *logger.Logger
	inventory        inventoryLister
	alerts           alertRaiser
	defaultThreshold int
}

func (j *lowStockJob) Name() string { return "low-stock-monitor" }

func (j *lowStockJob) Run(ctx context.Context) error {
	items, err := j.inventory.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("list inventory items: %w", err)
	}

	var errs error
	raised, resolved := 0, 0
	for _, item := range items {
		threshold := j.defaultThreshold
		if item.LowStockThreshold != nil {
			threshold = *item.LowStockThreshold
		}

		if item.AvailableQty <= threshold {
			_, created, err := j.alerts.Raise(ctx, alerts.RaiseInput{
				VariantID:    item.VariantID,
				LocationID:   item.LocationID,
				AvailableQty: item.AvailableQty,
				Threshold:    threshold,
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("raise alert for variant %s: %w", item.VariantID, err))
				continue
			}
			if created {
				raised++
			}
			continue
		}

		ok, err := j.alerts.ResolveFor(ctx, item.VariantID, item.LocationID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("resolve alert for variant %s: %w", item.VariantID, err))
			continue
		}
		if ok {
			resolved++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"items_scanned":   len(items),
		"alerts_raised":   raised,
		"alerts_resolved": resolved,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}
