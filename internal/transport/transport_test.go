package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fanboxviewer/internal/credentials"
	"fanboxviewer/internal/endpoints"
)

type staticSource []credentials.Cookie

func (s staticSource) Cookies(context.Context) ([]credentials.Cookie, error) { return s, nil }

type fakePage struct {
	navigated []string
	evalArgs  [][]any
	evalOut   string
	evalErr   error
	html      []string
	htmlCalls int
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Eval(_ context.Context, _ string, args ...any) (string, error) {
	p.evalArgs = append(p.evalArgs, args)
	return p.evalOut, p.evalErr
}

func (p *fakePage) HTML(context.Context) (string, error) {
	i := p.htmlCalls
	p.htmlCalls++
	if i >= len(p.html) {
		i = len(p.html) - 1
	}
	return p.html[i], nil
}

func TestDirect_SendsSessionHeaders(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"body":[]}`))
	}))
	defer srv.Close()

	d := &Direct{
		HTTP:      srv.Client(),
		UserAgent: "ua-test",
		Credentials: &credentials.Provider{Source: staticSource{
			{Name: "FANBOXSESSID", Value: "s1", Domain: ".fanbox.cc", Path: "/"},
			{Name: "csrfToken", Value: "tok", Domain: ".fanbox.cc", Path: "/"},
		}},
	}
	res, err := d.Execute(context.Background(), endpoints.Candidate{URL: srv.URL + "/post.listCreator", Method: http.MethodPost, Body: `{"creatorId":"alice"}`})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !res.OK() || string(res.Body) != `{"body":[]}` {
		t.Fatalf("res=%d %q", res.Status, res.Body)
	}
	if got.Header.Get("Cookie") != "FANBOXSESSID=s1; csrfToken=tok" {
		t.Fatalf("cookie=%q", got.Header.Get("Cookie"))
	}
	if got.Header.Get("x-csrf-token") != "tok" {
		t.Fatalf("csrf=%q", got.Header.Get("x-csrf-token"))
	}
	if got.Header.Get("Origin") != "https://www.fanbox.cc" || got.Header.Get("Referer") != "https://www.fanbox.cc/" {
		t.Fatalf("origin=%q referer=%q", got.Header.Get("Origin"), got.Header.Get("Referer"))
	}
	if got.Header.Get("User-Agent") != "ua-test" || got.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("headers=%v", got.Header)
	}
	if gotBody != `{"creatorId":"alice"}` {
		t.Fatalf("body=%q", gotBody)
	}
}

func TestDirect_NoSessionStillRequests(t *testing.T) {
	var cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"general_error"}`))
	}))
	defer srv.Close()

	d := &Direct{HTTP: srv.Client()}
	res, err := d.Execute(context.Background(), endpoints.Candidate{URL: srv.URL, Method: http.MethodGet})
	var herr *HTTPError
	if !errors.As(err, &herr) || herr.Status != http.StatusForbidden {
		t.Fatalf("err=%v want HTTPError 403", err)
	}
	if res.Status != http.StatusForbidden || !strings.Contains(string(res.Body), "general_error") {
		t.Fatalf("res=%d %q", res.Status, res.Body)
	}
	if cookie != "" {
		t.Fatalf("cookie=%q want empty", cookie)
	}
}

func TestScripted_LoadsOriginOnce(t *testing.T) {
	p := &fakePage{evalOut: `{"status":200,"body":"{\"body\":[1]}"}`}
	s := &Scripted{Page: p}
	c := endpoints.Candidate{URL: "https://api.fanbox.cc/post.listCreator?creatorId=a", Method: http.MethodGet}
	for i := 0; i < 2; i++ {
		res, err := s.Execute(context.Background(), c)
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		if string(res.Body) != `{"body":[1]}` {
			t.Fatalf("body=%q", res.Body)
		}
	}
	if len(p.navigated) != 1 || p.navigated[0] != "https://www.fanbox.cc/" {
		t.Fatalf("navigated=%v", p.navigated)
	}
	if len(p.evalArgs) != 2 || p.evalArgs[0][0] != http.MethodGet || p.evalArgs[0][1] != c.URL {
		t.Fatalf("evalArgs=%v", p.evalArgs)
	}
}

func TestScripted_Errors(t *testing.T) {
	cases := []struct {
		name string
		out  string
	}{
		{"script error", `{"error":"TypeError: Failed to fetch"}`},
		{"http status", `{"status":401,"body":"{}"}`},
		{"garbage", `not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Scripted{Page: &fakePage{evalOut: tc.out}}
			if _, err := s.Execute(context.Background(), endpoints.Candidate{URL: "u", Method: "GET"}); err == nil {
				t.Fatalf("expected error for %q", tc.out)
			}
		})
	}
	if _, err := (&Scripted{}).Execute(context.Background(), endpoints.Candidate{}); !errors.Is(err, ErrBrowserDisabled) {
		t.Fatalf("err=%v want ErrBrowserDisabled", err)
	}
}

func TestDOMScrape_PollsUntilAnchors(t *testing.T) {
	p := &fakePage{html: []string{
		`<html><body><div>loading</div></body></html>`,
		`<html><body>
			<a href="/@alice"><img src="/icons/a.png"><span>Alice</span>  <span>Art</span></a>
			<a href="https://www.fanbox.cc/@bob?tab=posts">Bob</a>
			<a href="/@alice/posts">dup</a>
			<a href="/settings">nope</a>
		</body></html>`,
	}}
	d := &DOMScrape{Page: p, Attempts: 5, Interval: time.Millisecond}
	res, err := d.Execute(context.Background(), endpoints.Candidate{URL: "https://www.fanbox.cc/manage/subscriptions", Method: "DOM"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := `{"creators":[{"creatorId":"alice","name":"Alice Art","iconUrl":"https://www.fanbox.cc/icons/a.png"},{"creatorId":"bob","name":"Bob"}]}`
	if string(res.Body) != want {
		t.Fatalf("body=%s\nwant %s", res.Body, want)
	}
	if p.htmlCalls != 2 {
		t.Fatalf("htmlCalls=%d want 2", p.htmlCalls)
	}
}

func TestDOMScrape_GivesUp(t *testing.T) {
	p := &fakePage{html: []string{`<html></html>`}}
	d := &DOMScrape{Page: p, Attempts: 3, Interval: time.Millisecond}
	_, err := d.Execute(context.Background(), endpoints.Candidate{URL: "https://www.fanbox.cc/manage/subscriptions"})
	if !errors.Is(err, ErrNoAnchors) {
		t.Fatalf("err=%v want ErrNoAnchors", err)
	}
	if p.htmlCalls != 3 {
		t.Fatalf("htmlCalls=%d want 3", p.htmlCalls)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
		{"ファンボックス", 7, "ファ"},
		{"ファンボックス", 6, "ファ"},
		{"ファ", 2, ""},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := Truncate([]byte(tc.in), tc.n); got != tc.want {
			t.Fatalf("Truncate(%q, %d)=%q want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
