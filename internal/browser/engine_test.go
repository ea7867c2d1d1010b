package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"fanboxviewer/internal/config"
	"fanboxviewer/internal/credentials"
	"fanboxviewer/internal/transport"
)

func TestEngine_DisabledNeverLaunches(t *testing.T) {
	e := NewEngine(config.BrowserConfig{Enabled: false}, nil)
	s := e.NewSession(nil)
	if err := s.Navigate(context.Background(), "https://www.fanbox.cc/"); !errors.Is(err, transport.ErrBrowserDisabled) {
		t.Fatalf("err=%v want ErrBrowserDisabled", err)
	}
	if s.Started() {
		t.Fatalf("session should not be started")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close err=%v", err)
	}
	if cookies, err := e.Cookies(context.Background()); err != nil || cookies != nil {
		t.Fatalf("cookies=%v err=%v", cookies, err)
	}
	if err := e.Clear(context.Background()); err != nil {
		t.Fatalf("clear err=%v", err)
	}
}

func TestEngine_EphemeralProfileHasNoCookies(t *testing.T) {
	e := NewEngine(config.BrowserConfig{Enabled: true}, nil)
	cookies, err := e.Cookies(context.Background())
	if err != nil || len(cookies) != 0 {
		t.Fatalf("cookies=%v err=%v", cookies, err)
	}
	if e.browser != nil {
		t.Fatalf("browser launched for an ephemeral profile")
	}
}

func TestCookieConversion(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	p := toParam(credentials.Cookie{Name: "FANBOXSESSID", Value: "v", Domain: ".fanbox.cc", Expires: exp})
	if p.Path != "/" || !p.Secure {
		t.Fatalf("param=%+v", p)
	}
	if !p.Expires.Time().Equal(exp) {
		t.Fatalf("expires=%v want %v", p.Expires.Time(), exp)
	}

	c := fromProto(&proto.NetworkCookie{Name: "a", Value: "b", Domain: ".fanbox.cc", Path: "/", Expires: -1, Session: true})
	if !c.Expires.IsZero() {
		t.Fatalf("session cookie expires=%v", c.Expires)
	}
	c = fromProto(&proto.NetworkCookie{Name: "a", Value: "b", Domain: ".fanbox.cc", Path: "/", Expires: proto.TimeSinceEpoch(exp.Unix())})
	if !c.Expires.Equal(exp) {
		t.Fatalf("expires=%v want %v", c.Expires, exp)
	}
}
