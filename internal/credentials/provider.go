package credentials

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Origins the site spreads its session cookies across.
var DefaultOrigins = []string{
	"https://www.fanbox.cc/",
	"https://fanbox.cc/",
	"https://api.fanbox.cc/",
}

var csrfAliases = []string{"csrf", "csrfToken", "x-csrf-token", "csrf_token"}

type Provider struct {
	Source CookieSource
	Logger *zap.Logger
	Now    func() time.Time
}

// HeaderFor builds a single Cookie header for the given origins. Repeated
// name=value pairs are dropped, the first occurrence keeps its position. An
// empty result means there is no session; callers proceed without credentials.
func (p *Provider) HeaderFor(ctx context.Context, origins ...string) string {
	if p == nil || p.Source == nil {
		return ""
	}
	jar, err := p.Source.Cookies(ctx)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("cookie source failed", zap.Error(err))
		}
		return ""
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}
	if len(origins) == 0 {
		origins = DefaultOrigins
	}

	seen := map[string]struct{}{}
	parts := make([]string, 0, len(jar))
	for _, origin := range origins {
		for _, c := range jar {
			if !c.VisibleTo(origin, now) {
				continue
			}
			pair := strings.TrimSpace(c.Name) + "=" + c.Value
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			parts = append(parts, pair)
		}
	}
	return strings.Join(parts, "; ")
}

// Pair is one name=value entry of a Cookie header.
type Pair struct {
	Name  string
	Value string
}

// ParseCookieHeader splits a Cookie header into its pairs, keeping order.
func ParseCookieHeader(header string) []Pair {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	var out []Pair
	for _, part := range strings.Split(header, ";") {
		p := strings.TrimSpace(part)
		idx := strings.Index(p, "=")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(p[:idx])
		if name == "" {
			continue
		}
		out = append(out, Pair{Name: name, Value: p[idx+1:]})
	}
	return out
}

// CSRFToken looks for an anti-forgery token among the header's cookies: known
// aliases first, then any name containing "csrf" regardless of case.
func CSRFToken(header string) string {
	pairs := ParseCookieHeader(header)
	if len(pairs) == 0 {
		return ""
	}
	values := make(map[string]string, len(pairs))
	for _, p := range pairs {
		values[p.Name] = p.Value
	}
	for _, alias := range csrfAliases {
		if v := values[alias]; strings.TrimSpace(v) != "" {
			return v
		}
	}
	for _, p := range pairs {
		if strings.Contains(strings.ToLower(p.Name), "csrf") && strings.TrimSpace(p.Value) != "" {
			return p.Value
		}
	}
	return ""
}
