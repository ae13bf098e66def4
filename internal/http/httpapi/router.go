package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"comercio/internal/http/handlers"
	"comercio/internal/infra"
	"comercio/internal/middleware"
)

// Options configures the middleware chain around the catalog API.
type Options struct {
	Logger         infra.Logger
	JWTSecret      string
	AllowedOrigins []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	RateLimit      int
	RatePer        time.Duration
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/catalogs", func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))
		// Rate limiting sits behind auth so buckets key on the tenant.
		if opts.RateLimit > 0 {
			per := opts.RatePer
			if per <= 0 {
				per = time.Minute
			}
			r.Use(middleware.RateLimit(opts.RateLimit, per))
		}
		r.Post("/", app.CatalogsGenerate)
		r.Get("/{reference}", app.CatalogGet)
		r.Post("/{reference}/dispatch", app.CatalogDispatch)
	})

	return r
}
