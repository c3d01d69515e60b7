/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for the browser client
  5. Metrics:     Request counter (when a collector is configured)
  6. RateLimiter: Per-IP token bucket on /api (when configured)

ROUTE GROUPS:
  /api/*     Game intents and views (see handlers.go)
  /ws        Websocket event stream
  /metrics   Prometheus scrape endpoint
  /healthz   Liveness

SEE ALSO:
  - handlers.go: Handler implementations
  - hub.go: Websocket hub
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/gridtycoon/metrics"
)

// RouterConfig carries the optional pieces of the router.
type RouterConfig struct {
	AllowedOrigins []string
	Hub            *Hub
	Metrics        *metrics.Collector
	Limiter        *RateLimiter
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Instrument)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeWS)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		if cfg.Limiter != nil {
			r.Use(cfg.Limiter.Middleware)
		}

		r.Get("/state", h.GetState)
		r.Get("/catalog", h.GetCatalog)
		r.Get("/history", h.GetHistory)
		r.Post("/reset", h.Reset)

		// Stats routes
		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.GetStats)
			r.Get("/{itemId}", h.GetProducerStats)
		})

		// Shop routes
		r.Route("/shop", func(r chi.Router) {
			r.Get("/", h.GetShop)
			r.Get("/locked", h.GetLockedProducers)
			r.Get("/cost/{itemId}", h.GetBulkCost)
			r.Post("/quantity", h.SetBuyQuantity)
		})

		// Producer routes
		r.Route("/producers", func(r chi.Router) {
			r.Post("/buy", h.BuyProducer)
			r.Post("/sell", h.SellProducer)
			r.Post("/unlock", h.UnlockProducer)
		})

		r.Post("/upgrades/buy", h.BuyUpgrade)

		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.HireWorker)
			r.Delete("/{id}", h.FireWorker)
			r.Get("/{id}/stats", h.GetWorkerStats)
			r.Post("/{id}/bench", h.BenchWorker)
			r.Post("/{id}/unbench", h.UnbenchWorker)
			r.Post("/{id}/train", h.TrainWorker)
			r.Post("/{id}/experience", h.AddWorkerExperience)
			r.Post("/{id}/wage", h.UpdateWorkerWage)
			r.Post("/{id}/suppress", h.SuppressWorker)
		})

		// Economy routes
		r.Route("/economy", func(r chi.Router) {
			r.Post("/balance/add", h.amountHandler(h.Game.AddBalance))
			r.Post("/balance/subtract", h.amountHandler(h.Game.SubtractBalance))
			r.Put("/kwh", h.amountHandler(h.Game.SetKwh))
			r.Post("/kwh/add", h.amountHandler(h.Game.AddKwh))
			r.Put("/dpkw", h.amountHandler(h.Game.SetDpkw))
		})

		r.Route("/modifiers", func(r chi.Router) {
			r.Get("/", h.ListModifiers)
			r.Post("/", h.AddModifier)
			r.Delete("/{id}", h.RemoveModifier)
		})
		r.Put("/weather", h.SetWeather)
		r.Post("/clock/next-hour", h.NextHour)

		// Session routes
		r.Put("/settings", h.UpdateSettings)
		r.Put("/ui", h.UpdateUI)
		r.Route("/saves", func(r chi.Router) {
			r.Get("/", h.ListSaves)
			r.Post("/", h.CreateSave)
			r.Post("/{name}/load", h.LoadSave)
			r.Delete("/{name}", h.DeleteSave)
		})
	})

	return r
}
