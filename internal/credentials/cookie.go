// Package credentials assembles cookie and CSRF material for upstream requests
// from whatever cookie jar backs the session.
package credentials

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Cookie is one jar entry. Expires is zero for session cookies.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"-"`
}

// CookieSource returns every cookie in a jar.
type CookieSource interface {
	Cookies(ctx context.Context) ([]Cookie, error)
}

// Jar is a CookieSource that can also be emptied.
type Jar interface {
	CookieSource
	Clear(ctx context.Context) error
}

// VisibleTo reports whether the cookie would be sent with a request to rawURL.
func (c Cookie) VisibleTo(rawURL string, now time.Time) bool {
	if strings.TrimSpace(c.Name) == "" {
		return false
	}
	if !c.Expires.IsZero() && !c.Expires.After(now) {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return false
	}
	return domainMatch(u.Hostname(), c.Domain) && pathMatch(u.Path, c.Path)
}

func domainMatch(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	domain = strings.TrimPrefix(domain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func pathMatch(reqPath, cookiePath string) bool {
	if cookiePath == "" || cookiePath == "/" {
		return true
	}
	if reqPath == "" {
		reqPath = "/"
	}
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
