package middlewares

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/braider-storefront/internal/pkg/requestmeta"
)

// Session makes sure every request carries a session ID. A missing or
// malformed cookie is replaced with a fresh UUID. The cookie lives as long as
// the draft it points to.
func Session(ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(requestmeta.SessionCookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sessionID = id.String()
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			// refreshed on every request so an active buyer never loses the draft
			http.SetCookie(w, &http.Cookie{
				Name:     requestmeta.SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := requestmeta.WithSessionID(r.Context(), sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
