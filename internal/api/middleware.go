/**
 * @description
 * This file contains HTTP middleware for the payment-service. The service sits
 * behind the API gateway and is called service-to-service, so its only auth
 * surface is a shared internal API key checked on every request to the
 * protected group.
 */

package api

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// InternalAPIKeyMiddleware rejects requests that do not carry the configured
// X-Internal-API-Key header. An empty configured key disables the check
// entirely, which is intended for local runs and tests only.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	expected := strings.TrimSpace(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if expected == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := strings.TrimSpace(r.Header.Get("X-Internal-API-Key"))
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
				log.Printf("level=warn component=api msg=\"internal api key rejected\" path=%s", r.URL.Path)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
