package api

import (
	"crypto/subtle"
	"net/http"
)

// APIKey returns middleware that enforces API key authentication on every
// request to next.
//
// Behaviour:
//   - If mode != "apikey" or key == "", all requests are allowed
//     (pass-through).
//   - Otherwise the value of header is compared to key; a missing, empty, or
//     incorrect key returns 401 with a JSON error body.
func APIKey(mode, header, key string, next http.Handler) http.Handler {
	if mode != "apikey" || key == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(header)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			jsonErr(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
