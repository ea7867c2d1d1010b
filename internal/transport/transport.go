// Package transport executes endpoint candidates. Direct talks HTTP itself;
// Scripted and DOMScrape drive a browser page that already carries the site's
// session.
package transport

import (
	"context"
	"errors"
	"fmt"

	"fanboxviewer/internal/endpoints"
)

const (
	NameDirect    = "direct"
	NameScripted  = "scripted"
	NameDOMScrape = "dom_scrape"
)

var (
	ErrBrowserDisabled = errors.New("browser engine disabled")
	ErrNoAnchors       = errors.New("no creator anchors found")
)

// Result is the raw outcome of one attempt.
type Result struct {
	Status int
	Body   []byte
}

func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Transport executes one candidate.
type Transport interface {
	Name() string
	Execute(ctx context.Context, c endpoints.Candidate) (Result, error)
}

// Page is a loaded, script-capable browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Eval(ctx context.Context, js string, args ...any) (string, error)
	HTML(ctx context.Context) (string, error)
}

type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream error (%d): %s", e.Status, e.Body)
}
