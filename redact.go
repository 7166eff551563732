package splitlog

import (
	"net/url"
	"sort"
	"strings"
)

const redactionPlaceholder = "[REDACTED]"

// redactURL returns the path and query of u with the values of any query
// parameter named in keysToRedact (case-insensitive) replaced by a
// placeholder. Parameters are written in key order.
func redactURL(u *url.URL, keysToRedact []string) string {
	if u == nil {
		return ""
	}
	path := u.EscapedPath()
	if u.RawQuery == "" {
		return path
	}
	if len(keysToRedact) == 0 {
		return path + "?" + u.RawQuery
	}

	keyMap := make(map[string]struct{}, len(keysToRedact))
	for _, key := range keysToRedact {
		keyMap[strings.ToLower(key)] = struct{}{}
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		// Not parseable, return as is.
		return path + "?" + u.RawQuery
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, masked := keyMap[strings.ToLower(k)]
		for _, v := range query[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			if masked {
				b.WriteString(redactionPlaceholder)
			} else {
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return path + "?" + b.String()
}
