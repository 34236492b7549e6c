package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Domains splits a comma separated list into lowercase hostnames without a
// leading "www.". Entries are not deduplicated.
func Domains(input string) []string {
	if input == "" {
		return nil
	}
	var out []string
	for _, raw := range strings.Split(input, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if host := Domain(raw); host != "" {
			out = append(out, host)
		}
	}
	return out
}

// Domain normalizes a single entry such as "https://www.Example.com/path".
func Domain(raw string) string {
	withScheme := raw
	if !schemePattern.MatchString(raw) {
		withScheme = "https://" + raw
	}
	if u, err := url.Parse(withScheme); err == nil && u.Hostname() != "" {
		return stripWWW(strings.ToLower(u.Hostname()))
	}
	// Unparseable: keep everything before the first path, query or fragment.
	fallback := raw
	if i := strings.IndexAny(raw, "/?#"); i >= 0 {
		fallback = raw[:i]
	}
	return stripWWW(strings.ToLower(fallback))
}

func stripWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}
