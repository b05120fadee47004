package logctx

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader is read and echoed by Middleware.
const RequestIDHeader = "X-Request-ID"

// Middleware runs every request on its own flow with request_id taken from
// the X-Request-ID header, or a new UUID when the header is absent.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx, scope := Enter(r.Context(), Fields{RequestID: id})
		defer scope.Exit()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
