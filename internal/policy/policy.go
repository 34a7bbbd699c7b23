package policy

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	clierr "github.com/ggonzalez94/defi-explorer/internal/errors"
)

// DefaultEndpoints are the upstream paths the yields proxy forwards when no
// allowlist is configured.
var DefaultEndpoints = []string{"/pools", "/chart/"}

// CheckEndpointAllowed validates a proxied endpoint against the allowlist.
// Entries ending in "/" match as prefixes, all others match exactly.
// The endpoint must be a relative path; absolute URLs and path traversal are
// rejected before the allowlist is consulted.
func CheckEndpointAllowed(allowlist []string, endpoint string) (string, error) {
	normPath, err := normalizeEndpoint(endpoint)
	if err != nil {
		return "", err
	}
	if len(allowlist) == 0 {
		allowlist = DefaultEndpoints
	}
	for _, allowed := range allowlist {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if strings.HasSuffix(allowed, "/") {
			if strings.HasPrefix(normPath, allowed) && len(normPath) > len(allowed) {
				return normPath, nil
			}
			continue
		}
		if normPath == allowed {
			return normPath, nil
		}
	}
	return "", clierr.New(clierr.CodeBlocked, fmt.Sprintf("endpoint %s is not allowed by proxy policy", normPath))
}

func normalizeEndpoint(endpoint string) (string, error) {
	raw := strings.TrimSpace(endpoint)
	if raw == "" {
		return "", clierr.New(clierr.CodeUsage, "endpoint is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "parse endpoint", err)
	}
	if u.Scheme != "" || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "", clierr.New(clierr.CodeUsage, "endpoint must be a path relative to the upstream base")
	}
	if strings.Contains(u.Path, "..") {
		return "", clierr.New(clierr.CodeBlocked, "endpoint path traversal is not allowed")
	}
	return path.Clean(u.Path), nil
}
