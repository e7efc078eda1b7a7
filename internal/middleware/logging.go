package middleware

import (
	"net/http"
	"runtime/debug"

	reqctx "airline-ops/airops/internal/context"
	"airline-ops/airops/internal/logging"
)

// Logging logs the HTMX request headers at debug level. They identify which
// element issued a partial request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("→ request",
			"request_id", reqctx.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"hx_target", r.Header.Get("HX-Target"),
			"hx_trigger", r.Header.Get("HX-Trigger"),
			"hx_current_url", r.Header.Get("HX-Current-URL"),
		)
		next.ServeHTTP(w, r)
	})
}

// Recoverer turns a handler panic into a 500 and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.Error("Handler panic",
					"request_id", reqctx.GetRequestID(r.Context()),
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
