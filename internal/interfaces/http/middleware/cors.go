// Package middleware holds the HTTP middleware chain: CORS, request
// logging and metrics collection.
package middleware

import (
	"net/http"
	"strings"
)

// CORS returns a fully-open cross-origin middleware: every origin is
// allowed and preflight requests short-circuit with 204. The platform
// sits behind an authenticating gateway, so the API itself does not
// restrict origins.
func CORS() func(http.Handler) http.Handler {
	allowMethods := strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	allowHeaders := strings.Join([]string{
		"Accept",
		"Authorization",
		"Content-Type",
		"X-Request-ID",
	}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
