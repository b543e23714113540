package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/BerylCAtieno/invoice-analyzer-api/internal/utils"
)

const RequestIDHeader = "X-Request-Id"

// RequestID propagates an incoming X-Request-Id or mints a new one.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" || len(requestID) > 128 {
				requestID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), requestID)))
		})
	}
}
