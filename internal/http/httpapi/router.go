package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JetJadeja/celebxplain/internal/http/handlers"
	"github.com/JetJadeja/celebxplain/internal/infra"
	"github.com/JetJadeja/celebxplain/internal/middleware"
)

// Options carries the router's cross-cutting configuration.
type Options struct {
	Logger          infra.Logger
	CountryLookup   middleware.CountryLookup
	AllowedOrigins  []string
	RateLimitPerMin int
}

// NewRouter assembles the API surface.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger, opts.CountryLookup),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/personas", app.Personas)
		r.Get("/artifacts/*", app.Artifact)
		r.Route("/jobs", func(r chi.Router) {
			limit := opts.RateLimitPerMin
			if limit <= 0 {
				limit = 30
			}
			r.With(middleware.RateLimit(limit, time.Minute)).Post("/", app.CreateJob)
			r.Get("/{job_id}", app.GetJob)
			r.Get("/{job_id}/video", app.JobVideo)
		})
	})

	return r
}
