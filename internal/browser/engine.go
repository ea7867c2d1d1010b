// Package browser wraps a Chromium instance driven over CDP. The engine's
// default context holds whatever session the user established in a
// persistent profile; each sync runs in its own incognito context seeded
// with the known cookies.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"fanboxviewer/internal/config"
	"fanboxviewer/internal/credentials"
	"fanboxviewer/internal/transport"
)

type Engine struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

func NewEngine(cfg config.BrowserConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

func (e *Engine) Enabled() bool {
	return e != nil && e.cfg.Enabled
}

// persistent reports whether the default context can hold a session of its own.
func (e *Engine) persistent() bool {
	return e.cfg.UserDataDir != "" || e.cfg.ControlURL != ""
}

func (e *Engine) connect(ctx context.Context) (*rod.Browser, error) {
	if !e.Enabled() {
		return nil, transport.ErrBrowserDisabled
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		return e.browser, nil
	}

	controlURL := e.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(e.cfg.Headless)
		if e.cfg.Bin != "" {
			l = l.Bin(e.cfg.Bin)
		}
		if e.cfg.UserDataDir != "" {
			l = l.UserDataDir(e.cfg.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	// The browser outlives the request that started it.
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	e.logger.Info("browser connected", zap.Bool("headless", e.cfg.Headless), zap.Bool("persistent", e.persistent()))
	e.browser = b
	return b, nil
}

// Cookies returns the default context's cookies. Without a persistent
// profile there is nothing to read and the browser is not started.
func (e *Engine) Cookies(ctx context.Context) ([]credentials.Cookie, error) {
	if !e.Enabled() || !e.persistent() {
		return nil, nil
	}
	b, err := e.connect(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := b.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}
	out := make([]credentials.Cookie, 0, len(raw))
	for _, c := range raw {
		out = append(out, fromProto(c))
	}
	return out, nil
}

func (e *Engine) Clear(ctx context.Context) error {
	if !e.Enabled() || !e.persistent() {
		return nil
	}
	b, err := e.connect(ctx)
	if err != nil {
		return err
	}
	return b.Context(ctx).SetCookies(nil)
}

func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}

func fromProto(c *proto.NetworkCookie) credentials.Cookie {
	out := credentials.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
	}
	if !c.Session && c.Expires > 0 {
		out.Expires = c.Expires.Time()
	}
	return out
}

func toParam(c credentials.Cookie) *proto.NetworkCookieParam {
	p := &proto.NetworkCookieParam{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
		Secure: true,
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if !c.Expires.IsZero() {
		p.Expires = proto.TimeSinceEpoch(float64(c.Expires.UnixMilli()) / 1000)
	}
	return p
}

func (e *Engine) navigationTimeout() time.Duration {
	if e.cfg.NavigationTimeout <= 0 {
		return 30 * time.Second
	}
	return e.cfg.NavigationTimeout
}
