package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"fanboxviewer/internal/credentials"
	"fanboxviewer/internal/endpoints"
)

const maxBodyBytes = 4 << 20

// Direct sends candidates over plain HTTP with the session cookies and the
// headers the site expects from its own pages.
type Direct struct {
	HTTP        *http.Client
	Credentials *credentials.Provider
	UserAgent   string
	// SiteOrigin is sent as Origin and, with a trailing slash, as Referer.
	SiteOrigin    string
	CookieOrigins []string
	Limiter       *rate.Limiter
}

func (d *Direct) Name() string { return NameDirect }

func (d *Direct) Execute(ctx context.Context, c endpoints.Candidate) (Result, error) {
	ctx, span := otel.Tracer("fanboxviewer/transport").Start(ctx, "fanbox.direct",
		trace.WithAttributes(
			attribute.String("http.request.method", c.Method),
			attribute.String("url.full", c.URL),
		))
	defer span.End()

	res, err := d.do(ctx, c)
	span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (d *Direct) do(ctx context.Context, c endpoints.Candidate) (Result, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return Result{}, err
		}
	}

	var body io.Reader
	if c.Method == http.MethodPost {
		payload := c.Body
		if payload == "" {
			payload = "{}"
		}
		body = strings.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, c.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	d.decorate(ctx, req)

	resp, err := d.httpClient().Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	res := Result{Status: resp.StatusCode, Body: b}
	if err != nil {
		return res, fmt.Errorf("failed to read response: %w", err)
	}
	if !res.OK() {
		return res, &HTTPError{Status: resp.StatusCode, Body: Truncate(b, 200)}
	}
	return res, nil
}

func (d *Direct) decorate(ctx context.Context, req *http.Request) {
	origin := strings.TrimRight(d.SiteOrigin, "/")
	if origin == "" {
		origin = endpoints.DefaultWWWBase
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", origin+"/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	origins := d.CookieOrigins
	if len(origins) == 0 {
		origins = credentials.DefaultOrigins
	}
	cookie := d.Credentials.HeaderFor(ctx, origins...)
	if cookie == "" {
		return
	}
	req.Header.Set("Cookie", cookie)
	if csrf := credentials.CSRFToken(cookie); csrf != "" {
		req.Header.Set("x-csrf-token", csrf)
	}
}

func (d *Direct) httpClient() *http.Client {
	if d.HTTP != nil {
		return d.HTTP
	}
	return http.DefaultClient
}

// Truncate cuts b to at most n bytes, backing off to a rune boundary so a
// multi-byte character is never split.
func Truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	if n <= 0 {
		return ""
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut])
}
