package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/ratelimit"
	"portfolio-backend/internal/websocket"
)

// Options carries everything the route table needs.
type Options struct {
	Identity            auth.Verifier
	ProxyLimiter        *ratelimit.Limiter
	Chat                *handlers.ChatHandler
	Knowledge           *handlers.KnowledgeHandler
	Proxy               *handlers.ProxyHandler
	Admin               *handlers.AdminHandler
	Hub                 *websocket.Hub
	FrontendURL         string
	RequireAuthForAbout bool
	Logger              *slog.Logger
}

func New(o Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(o.Logger))
	r.Use(middleware.Recovery(o.Logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// The chat pipeline verifies identity and admits requests itself so
		// that every outcome lands in the interaction log.
		r.Post("/chat", o.Chat.Chat)

		r.Group(func(r chi.Router) {
			if o.RequireAuthForAbout {
				r.Use(middleware.RequireUser(o.Identity))
			} else {
				r.Use(middleware.OptionalUser(o.Identity))
			}
			r.Get("/knowledge/about", o.Knowledge.About)
		})

		// ──── Provider proxies ────
		r.Group(func(r chi.Router) {
			if o.ProxyLimiter != nil {
				r.Use(middleware.RateLimit(o.ProxyLimiter))
			}
			r.Post("/openai", o.Proxy.Completion)
			r.Post("/tts", o.Proxy.Speech)
		})

		// ──── Admin ────
		// The stream authenticates from its query string since browsers
		// cannot set headers on a websocket upgrade.
		if o.Hub != nil {
			r.Get("/admin/llm-logs/stream", o.Hub.HandleWebSocket)
		}
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(o.Identity))
			r.Get("/admin/llm-logs", o.Admin.ListLogs)
			r.Delete("/admin/llm-logs", o.Admin.ClearLogs)

			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", o.Admin.ListFlags)
				r.Post("/", o.Admin.CreateFlag)
				r.Patch("/", o.Admin.PatchFlag)
				r.Delete("/", o.Admin.DeleteFlag)
			})
		})
	})

	return corsHandler(o.FrontendURL).Handler(r)
}

func corsHandler(frontendURL string) *cors.Cors {
	origins := []string{}
	for _, o := range strings.Split(frontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	})
}
