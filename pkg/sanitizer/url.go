package sanitizer

import (
	"net/url"
	"strings"
)

// NormalizeURL lowercases the scheme and host and drops a trailing slash.
// Path and query are kept as given since webhook receivers may be case sensitive.
// Anything that is not an absolute http(s) URL becomes "".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}
