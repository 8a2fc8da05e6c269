package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/fulfillz-backend/api/responses"
	"github.com/angelmondragon/fulfillz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fulfillz-backend/pkg/errors"
	"github.com/angelmondragon/fulfillz-backend/pkg/logger"
)

// Pinger is the readiness surface each wired dependency exposes.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fulfillz-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every wired dependency. A nil pinger is skipped so
// processes that run without, say, Pub/Sub still report ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Fulfillz-Env", cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				ctx := logg.WithField(r.Context(), "dependency", name)
				logg.Error(ctx, "readiness check failed", err)
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
