package utils

import (
	"net/url"
	"strings"
)

// DefaultAPIBase is the path prefix the backend serves its API under.
const DefaultAPIBase = "/api"

func IsLocalhost(serverURL string) bool {
	u, err := url.Parse(serverURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// JoinURL combines the server origin with the API base. An absolute apiBase
// is returned as-is; an empty one falls back to DefaultAPIBase.
func JoinURL(serverURL, apiBase string) string {
	apiBase = strings.TrimSpace(apiBase)
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if u, err := url.Parse(apiBase); err == nil && u.Scheme != "" && u.Host != "" {
		return strings.TrimRight(apiBase, "/")
	}
	server := strings.TrimRight(strings.TrimSpace(serverURL), "/")
	if !strings.HasPrefix(apiBase, "/") {
		apiBase = "/" + apiBase
	}
	return strings.TrimRight(server+apiBase, "/")
}
