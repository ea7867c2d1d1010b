package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"fanboxviewer/internal/credentials"
	"fanboxviewer/internal/transport"
)

var _ transport.Page = (*Session)(nil)

// Session is one incognito tab. Nothing is launched until the first call
// that needs a page.
type Session struct {
	engine *Engine
	seed   credentials.CookieSource

	mu        sync.Mutex
	incognito *rod.Browser
	page      *rod.Page
}

func (e *Engine) NewSession(seed credentials.CookieSource) *Session {
	return &Session{engine: e, seed: seed}
}

// Started reports whether a browser context was opened for this session.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page != nil
}

func (s *Session) ensure(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page != nil {
		return s.page, nil
	}
	b, err := s.engine.connect(ctx)
	if err != nil {
		return nil, err
	}
	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	if s.seed != nil {
		cookies, err := s.seed.Cookies(ctx)
		if err != nil {
			_ = incognito.Close()
			return nil, fmt.Errorf("seed cookies: %w", err)
		}
		params := make([]*proto.NetworkCookieParam, 0, len(cookies))
		for _, c := range cookies {
			params = append(params, toParam(c))
		}
		if len(params) > 0 {
			if err := incognito.SetCookies(params); err != nil {
				_ = incognito.Close()
				return nil, fmt.Errorf("set cookies: %w", err)
			}
		}
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.incognito = incognito
	s.page = page
	return page, nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	page, err := s.ensure(ctx)
	if err != nil {
		return err
	}
	p := page.Context(ctx).Timeout(s.engine.navigationTimeout())
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *Session) Eval(ctx context.Context, js string, args ...any) (string, error) {
	page, err := s.ensure(ctx)
	if err != nil {
		return "", err
	}
	res, err := page.Context(ctx).Evaluate(rod.Eval(js, args...).ByPromise())
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	page, err := s.ensure(ctx)
	if err != nil {
		return "", err
	}
	return page.Context(ctx).HTML()
}

// Close disposes the incognito context. Safe to call on an unstarted session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incognito == nil {
		return nil
	}
	err := s.incognito.Close()
	s.incognito = nil
	s.page = nil
	return err
}
