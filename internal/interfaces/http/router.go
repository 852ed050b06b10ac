// Package http assembles the REST API: route tree, middleware chain
// and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	prom "github.com/reubenai/dealsense/internal/infrastructure/monitoring/prometheus"
	"github.com/reubenai/dealsense/internal/interfaces/http/handlers"
	"github.com/reubenai/dealsense/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and cross-cutting dependencies
// needed to build the full route tree.
type RouterConfig struct {
	DealHandler       *handlers.DealHandler
	FundHandler       *handlers.FundHandler
	EnrichmentHandler *handlers.EnrichmentHandler
	AnalysisHandler   *handlers.AnalysisHandler
	IndustryHandler   *handlers.IndustryHandler
	HealthHandler     *handlers.HealthHandler

	Logger  logging.Logger
	Metrics *prom.Metrics
}

// NewRouter builds the complete http.Handler: global middleware, the
// probe endpoints, /metrics, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerDealRoutes(api, cfg)
		registerFundRoutes(api, cfg)
		registerIndustryRoutes(api, cfg.IndustryHandler)
	})

	return r
}

// registerDealRoutes mounts the deal resource and its sub-resources
// under /deals.
func registerDealRoutes(r chi.Router, cfg RouterConfig) {
	h := cfg.DealHandler
	if h == nil {
		return
	}
	r.Route("/deals", func(dr chi.Router) {
		dr.Get("/", h.List)
		dr.Post("/", h.Create)

		dr.Route("/{dealID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Put("/", h.Update)
			item.Delete("/", h.Delete)
			item.Post("/advance", h.Advance)

			if eh := cfg.EnrichmentHandler; eh != nil {
				item.Post("/enrich", eh.Enrich)
				item.Get("/enrichment", eh.Results)
			}
			if ah := cfg.AnalysisHandler; ah != nil {
				item.Get("/analysis", ah.Latest)
				item.Post("/analysis", ah.Rescore)
				item.Post("/memo", ah.GenerateMemo)
				item.Get("/memo", ah.GetMemo)
				item.Post("/export", ah.Export)
			}
		})
	})
}

// registerFundRoutes mounts funds and strategy endpoints.
func registerFundRoutes(r chi.Router, cfg RouterConfig) {
	h := cfg.FundHandler
	if h == nil {
		return
	}
	r.Route("/funds", func(fr chi.Router) {
		fr.Get("/", h.List)
		fr.Post("/", h.Create)

		fr.Route("/{fundID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Get("/strategy", h.GetStrategy)
			item.Put("/strategy", h.SaveStrategy)
		})
	})
	r.Post("/strategy/validate", h.ValidateStrategy)
}

// registerIndustryRoutes mounts the taxonomy endpoints.
func registerIndustryRoutes(r chi.Router, h *handlers.IndustryHandler) {
	if h == nil {
		return
	}
	r.Route("/industry", func(ir chi.Router) {
		ir.Post("/classify", h.Classify)
		ir.Post("/alignment", h.Alignment)
	})
}
