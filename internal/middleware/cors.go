package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured front-end origins. "*" allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			if reqOrigin != "" {
				if allowed, ok := allowOrigin(reqOrigin, origins); ok {
					w.Header().Set("Access-Control-Allow-Origin", allowed)
					w.Header().Add("Vary", "Origin")
				}
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowOrigin(reqOrigin string, configured []string) (string, bool) {
	for _, o := range configured {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			return "*", true
		case strings.EqualFold(o, reqOrigin):
			return reqOrigin, true
		}
	}
	return "", false
}
