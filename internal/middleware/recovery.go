package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"bedrockchat/internal/httputil"
)

// Recovery turns handler panics into 500 responses. Panics on a
// conversation route carry the conversation id so the log line can be
// matched to the affected chat.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					attrs := []any{
						"error", v,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					}
					if id := r.PathValue("id"); id != "" {
						attrs = append(attrs, "conversation_id", id)
					}
					logger.Error("panic recovered", attrs...)

					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
