package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewBearerTokenHandler returns a middleware that only lets requests through
// whose Authorization header is "Bearer <token>". An empty token rejects
// everything, so an unconfigured endpoint stays closed.
func NewBearerTokenHandler(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="eventer"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
