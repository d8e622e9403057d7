package model

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters that identify a click, not a page.
// Stripping them lets reposts of the same article collapse in dedup.
var trackingParams = map[string]bool{
	"gclid":   true,
	"gclsrc":  true,
	"fbclid":  true,
	"msclkid": true,
	"yclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"_hsenc":  true,
	"_hsmi":   true,
}

// NormalizeURL canonicalises a URL for identity comparison: lowercases the
// host, drops the fragment, default ports, and tracking parameters, sorts the
// remaining query, and trims a trailing slash from non-root paths. Inputs
// that do not parse are returned trimmed but otherwise unchanged.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port != "" && !isDefaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if trackingParams[key] || strings.HasPrefix(key, "utm_") {
				q.Del(key)
			}
		}
		// Encode emits keys in sorted order, so parameter order never
		// defeats identity comparison.
		u.RawQuery = q.Encode()
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}

	return u.String()
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
