package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/braider-storefront/internal/pkg/requestmeta"
)

// AttachRequestMetadata copies chi's request ID into the context key the
// logger reads and echoes it back to the client.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set(requestmeta.HeaderXRequestId, requestID)
		}

		ctx := requestmeta.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
