package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS allows the browser front end to call the API from another origin.
// Preflight requests are answered with 204 and never reach the handler.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return handlers.CORS(
		handlers.AllowedOrigins([]string{allowedOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader, "X-Analysis-Source"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)
}
