package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Mylifeforrent/react-management-backend/pkg/contextkeys"
)

// RequestIDHeader carries the request ID in responses and may supply one
// on inbound requests from a trusted proxy.
const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with a unique ID, reusing an inbound
// header value when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(contextkeys.WithRequestID(r.Context(), id)))
	})
}
