// Package security provides request filtering middleware.
package security

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// exemptPaths are never filtered
var exemptPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// scannerPrefixes are probes for software this server does not run
var scannerPrefixes = []string{
	"/.env",
	"/.git/",
	"/.htaccess",
	"/.htpasswd",
	"/admin/",
	"/cgi-bin/",
	"/phpinfo",
	"/phpmyadmin",
	"/server-status",
	"/wp-",
	"/xmlrpc.php",
}

// suspiciousFragments never occur in a deployment id or route
var suspiciousFragments = []string{
	"../",
	`..\`,
	"/..",
	"\x00",
}

// Blocked reports whether the request path looks like a scanner probe or
// tries to escape a deployment directory. Both the decoded path and the
// raw path after one more round of unescaping are checked.
func Blocked(r *http.Request) bool {
	candidates := []string{strings.ToLower(r.URL.Path)}
	if raw := r.URL.EscapedPath(); raw != "" {
		if decoded, err := url.PathUnescape(raw); err == nil {
			candidates = append(candidates, strings.ToLower(decoded))
			if twice, err := url.PathUnescape(decoded); err == nil {
				candidates = append(candidates, strings.ToLower(twice))
			}
		}
	}

	for _, p := range candidates {
		for _, prefix := range scannerPrefixes {
			if strings.HasPrefix(p, prefix) {
				return true
			}
		}
		for _, frag := range suspiciousFragments {
			if strings.Contains(p, frag) {
				return true
			}
		}
	}
	return false
}

// FilterMiddleware returns middleware that answers blocked requests with a
// generic 400.
func FilterMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] || !Blocked(r) {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "BAD_REQUEST",
					"message": "Invalid request",
				},
			})
		})
	}
}
