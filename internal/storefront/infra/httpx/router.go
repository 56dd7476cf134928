package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/braider-storefront/internal/storefront/infra/httpx/middlewares"
)

// NewRouter mounts the pages, the JSON API and the static assets. sessionTTL
// sets the lifetime of the session cookie.
func NewRouter(handler *Handler, sessionTTL time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)
	r.Get("/health/submissions/{id}", handler.SubmissionStatus)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middlewares.Session(sessionTTL))

		r.Get("/", handler.Index)
		r.Post("/order/bundle", handler.SelectBundleForm)
		r.Post("/order", handler.SubmitOrderForm)
		r.Get("/order/{id}/thank-you", handler.ThankYou)

		r.Route("/api", func(r chi.Router) {
			r.Get("/bundles", handler.ListBundles)
			r.Get("/states", handler.ListStates)
			r.Get("/draft", handler.GetDraft)
			r.Patch("/draft", handler.PatchDraft)
			r.Post("/draft/bundle", handler.SelectBundle)
			r.Post("/orders", handler.CreateOrder)
			r.Get("/orders/{id}", handler.GetOrder)
		})
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return !strings.HasPrefix(req.URL.Path, "/health")
		}),
	)
}
