package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sellerpulse-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/sellerpulse-backend/api/controllers/analytics"
	toolcontrollers "github.com/angelmondragon/sellerpulse-backend/api/controllers/tools"
	"github.com/angelmondragon/sellerpulse-backend/api/middleware"
	"github.com/angelmondragon/sellerpulse-backend/internal/analytics"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
	"github.com/angelmondragon/sellerpulse-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	deps map[string]controllers.Pinger,
	analyticsService analytics.Service,
	executor toolcontrollers.Executor,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Service.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sellers", analyticscontrollers.ListSellers(analyticsService, logg))
		r.Get("/filters", analyticscontrollers.FilterOptions(analyticsService, logg))

		r.Route("/sellers/{seller}", func(r chi.Router) {
			r.Get("/asins", analyticscontrollers.SellerASINs(analyticsService, logg))
			r.Get("/coverage", analyticscontrollers.Coverage(analyticsService, logg))
			r.Get("/gaps", analyticscontrollers.Gaps(analyticsService, logg))
			r.Post("/metrics", analyticscontrollers.Metrics(analyticsService, logg))
			r.Post("/cumulative", analyticscontrollers.CumulativeMetrics(analyticsService, logg))
			r.Post("/pivot", analyticscontrollers.Pivot(analyticsService, logg))
			r.Post("/export/csv", analyticscontrollers.ExportCSV(analyticsService, logg))
			r.Post("/yoy", analyticscontrollers.YoY(analyticsService, logg))
			r.Post("/refresh", analyticscontrollers.Refresh(analyticsService, logg))
		})

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", toolcontrollers.List())
			r.Post("/execute", toolcontrollers.Execute(executor, logg))
		})
	})

	return r
}
