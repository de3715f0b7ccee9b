// Package cookie reads named values out of a cookie store.
//
// The store is always injected: a literal Cookie header, a file exported from a
// browser session, or a net/http cookie jar primed against the admin site.
package cookie

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// CSRFCookie is the cookie the admin site uses for its CSRF token.
const CSRFCookie = "csrftoken"

// Source is a read-only name → value accessor over a cookie store.
type Source interface {
	Cookie(name string) (string, bool)
}

// Store is a Source that can also render itself as a Cookie request header.
type Store interface {
	Source
	Header() string
}

// Lookup returns the decoded value of the first cookie called name in raw,
// a "name=value; name2=value2" string. The second result is false when raw is
// empty or holds no such cookie.
func Lookup(raw, name string) (string, bool) {
	if raw == "" || name == "" {
		return "", false
	}
	prefix := name + "="
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if !strings.HasPrefix(pair, prefix) {
			continue
		}
		return decode(pair[len(prefix):]), true
	}
	return "", false
}

// decode percent-decodes v, leaving '+' alone. Malformed escapes, and escapes
// that decode to invalid UTF-8, return v as is.
func decode(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil || !utf8.ValidString(decoded) {
		return v
	}
	return decoded
}

// Raw is a literal cookie header string.
type Raw string

// Cookie implements Source.
func (r Raw) Cookie(name string) (string, bool) {
	return Lookup(string(r), name)
}

// Header implements Store.
func (r Raw) Header() string {
	return strings.TrimSpace(string(r))
}

// Chain returns the first value found across sources, in order.
type Chain []Source

// Cookie implements Source.
func (c Chain) Cookie(name string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Cookie(name); ok {
			return v, true
		}
	}
	return "", false
}
