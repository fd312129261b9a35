package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/abderrazaqq12/adspark-ai-sub011/internal/http/handlers"
	"github.com/abderrazaqq12/adspark-ai-sub011/internal/middleware"
)

// RouterOptions carries the cross-cutting pieces the router wires in front of
// the handlers.
type RouterOptions struct {
	Logger          zerolog.Logger
	MarketLookup    middleware.MarketLookup
	RateLimitPerMin int
	StaticDir       string
	AllowedOrigins  []string
}

func NewRouter(app *handlers.App, opts RouterOptions) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(opts.Logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}

	r.Get("/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.Market(opts.MarketLookup))

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", app.SubmitBatch)
			r.Get("/{id}", app.BatchStatus)
		})
		r.Post("/estimate", app.Estimate)
		r.Get("/engines", app.ListEngines)
	})

	if opts.StaticDir != "" {
		fs := stdhttp.StripPrefix("/static/", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
