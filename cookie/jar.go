package cookie

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NewJar creates a cookie jar that honours the public suffix list.
func NewJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// JarSource exposes the cookies a jar would send to one site.
type JarSource struct {
	jar  http.CookieJar
	site *url.URL
}

// NewJarSource scopes jar to baseURL.
func NewJarSource(jar http.CookieJar, baseURL string) (*JarSource, error) {
	if jar == nil {
		return nil, fmt.Errorf("cookie jar is required")
	}
	site, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if site.Scheme == "" || site.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &JarSource{jar: jar, site: site}, nil
}

// Cookie implements Source.
func (s *JarSource) Cookie(name string) (string, bool) {
	return Lookup(s.Header(), name)
}

// Header implements Store.
func (s *JarSource) Header() string {
	cookies := s.jar.Cookies(s.site)
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
