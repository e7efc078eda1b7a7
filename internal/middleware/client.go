package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"airline-ops/airops/internal/constants"
	reqctx "airline-ops/airops/internal/context"
)

// ClientMiddleware identifies the browser with a long-lived cookie so each
// tab group gets its own edit session. A missing or malformed cookie is
// replaced with a fresh id.
func ClientMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var clientID string
		if cookie, err := r.Cookie(constants.CookieClientID); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				clientID = id.String()
			}
		}

		if clientID == "" {
			clientID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     constants.CookieClientID,
				Value:    clientID,
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(reqctx.SetClientID(r.Context(), clientID)))
	})
}
