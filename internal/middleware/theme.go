package middleware

import (
	"net/http"

	"airline-ops/airops/internal/constants"
	reqctx "airline-ops/airops/internal/context"
)

var validThemes = map[string]bool{
	"light":         true,
	"dark":          true,
	"high-contrast": true,
}

// ValidTheme reports whether theme is one the stylesheet defines.
func ValidTheme(theme string) bool {
	return validThemes[theme]
}

// ThemeMiddleware injects the user's theme preference into the request context
func ThemeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		theme := reqctx.DefaultTheme
		if cookie, err := r.Cookie(constants.CookieTheme); err == nil && ValidTheme(cookie.Value) {
			theme = cookie.Value
		}
		next.ServeHTTP(w, r.WithContext(reqctx.SetTheme(r.Context(), theme)))
	})
}
