// Package http provides the HTTP delivery layer for the URL shortener service.
// This package contains the route table, the HTTP handlers and the request
// and response types used for processing incoming requests.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options tunes the router.
type Options struct {
	// BaseURL prefixes short links in responses and QR codes. When empty the
	// request host is used.
	BaseURL string
	// RequestsPerSecond and Burst rate limit the shorten endpoint per client
	// IP. A non-positive RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int
	// LimiterIdleTTL is how long an idle client's bucket is kept.
	LimiterIdleTTL time.Duration
	// TrustProxy takes the client IP from X-Forwarded-For and X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
	// SwaggerFile is the path of the OpenAPI document served at /docs/swagger.yml.
	SwaggerFile string
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	h := newURLHandler(urlUseCase, opts.BaseURL)

	if opts.SwaggerFile != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/docs/swagger.yml"),
		))

		r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.SwaggerFile)
		})
	}

	r.Get("/", h.home)
	r.Get("/statistics", h.statistics)
	r.Get("/short/{shortCode}", h.redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/urls", h.listURLs)
		r.Get("/events", h.events)

		r.Route("/shorten", func(r chi.Router) {
			if opts.RequestsPerSecond > 0 {
				burst := opts.Burst
				if burst <= 0 {
					burst = 1
				}
				r.With(newRateLimiter(opts.RequestsPerSecond, burst, opts.LimiterIdleTTL).handler).Post("/", h.shortenURL)
			} else {
				r.Post("/", h.shortenURL)
			}

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/stats", h.getURLStats)
				r.Get("/qr", h.qrCode)
			})
		})
	})

	return r
}
