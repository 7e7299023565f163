package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader carries the shared key of machine clients such as the metrics scraper
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware admits requests whose X-API-Key header equals apiKey.
// The comparison runs in constant time.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := []byte(r.Header.Get(APIKeyHeader))

			if len(provided) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid or missing API key"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
