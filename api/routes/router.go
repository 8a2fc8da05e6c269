package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/fulfillz-backend/api/controllers"
	"github.com/angelmondragon/fulfillz-backend/api/middleware"
	"github.com/angelmondragon/fulfillz-backend/internal/alerts"
	"github.com/angelmondragon/fulfillz-backend/internal/inventory"
	"github.com/angelmondragon/fulfillz-backend/internal/orders"
	"github.com/angelmondragon/fulfillz-backend/internal/reservations"
	"github.com/angelmondragon/fulfillz-backend/pkg/config"
	"github.com/angelmondragon/fulfillz-backend/pkg/db"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
	"github.com/angelmondragon/fulfillz-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	inventoryService inventory.Service,
	reservationService reservations.Service,
	orderService orders.Service,
	alertService alerts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(dbP, redisP)))
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Post("/adjust", controllers.InventoryAdjust(inventoryService, logg))
		r.Post("/transfer", controllers.InventoryTransfer(inventoryService, logg))
		r.Get("/variants/{variantId}", controllers.InventoryByVariant(inventoryService, logg))
		r.Get("/locations/{locationId}", controllers.InventoryByLocation(inventoryService, logg))
		r.Route("/variants/{variantId}/locations/{locationId}", func(r chi.Router) {
			r.Get("/", controllers.InventoryItemDetail(inventoryService, logg))
			r.Get("/adjustments", controllers.InventoryAdjustmentHistory(inventoryService, logg))
			r.Put("/threshold", controllers.InventoryUpdateThreshold(inventoryService, logg))
		})
	})

	r.Route("/api/v1/orders/{orderId}", func(r chi.Router) {
		r.Get("/", controllers.OrderDetail(orderService, logg))
		r.Get("/history", controllers.OrderHistory(orderService, logg))
		r.Post("/transition", controllers.OrderTransition(orderService, logg))
		r.Get("/reservations", controllers.ReservationList(reservationService, logg))
		r.Post("/reserve", controllers.ReservationReserve(reservationService, logg))
		r.Post("/release", controllers.ReservationRelease(reservationService, logg))
		r.Post("/fulfill", controllers.ReservationFulfill(reservationService, logg))
	})

	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Get("/", controllers.AlertList(alertService, logg))
		r.Post("/{alertId}/dismiss", controllers.AlertDismiss(alertService, logg))
	})

	return r
}

func readinessDeps(dbP db.Pinger, redisP redis.Pinger) map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisP != nil {
		deps["redis"] = redisP
	}
	return deps
}
