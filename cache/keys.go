package cache

import (
	"sort"
	"strings"
)

// Key builds a cache key from a logical namespace (provider + operation) and
// every parameter that affects the result. Callers must canonicalize parts
// first (Token / List) so that semantically identical requests collide on
// the same key.
func Key(namespace string, parts ...string) string {
	if len(parts) == 0 {
		return namespace
	}
	return namespace + ":" + strings.Join(parts, ":")
}

// Token canonicalizes a single symbol or currency code: trimmed, uppercased.
func Token(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// List canonicalizes a list parameter: each element trimmed and lowercased,
// the list sorted, then joined with commas. Order-insensitive requests map
// to one entry.
func List(vals []string) string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
