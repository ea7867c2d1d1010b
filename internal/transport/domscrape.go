package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"fanboxviewer/internal/endpoints"
)

var creatorPathPattern = regexp.MustCompile(`/@([^/?#]+)`)

// CreatorAnchor is what the subscription page exposes about one creator.
type CreatorAnchor struct {
	CreatorID string `json:"creatorId"`
	Name      string `json:"name"`
	IconURL   string `json:"iconUrl,omitempty"`
}

// DOMScrape reads supported creators off the account's subscription pages.
// The page renders client-side, so the HTML is polled until anchors appear.
type DOMScrape struct {
	Page     Page
	Attempts int
	Interval time.Duration
}

func (d *DOMScrape) Name() string { return NameDOMScrape }

func (d *DOMScrape) Execute(ctx context.Context, c endpoints.Candidate) (Result, error) {
	if d.Page == nil {
		return Result{}, ErrBrowserDisabled
	}
	if err := d.Page.Navigate(ctx, c.URL); err != nil {
		return Result{}, fmt.Errorf("navigate %s: %w", c.URL, err)
	}
	attempts := d.Attempts
	if attempts <= 0 {
		attempts = 40
	}
	interval := d.Interval
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(interval):
			}
		}
		doc, err := d.Page.HTML(ctx)
		if err != nil {
			continue
		}
		anchors := ExtractCreatorAnchors(doc, c.URL)
		if len(anchors) == 0 {
			continue
		}
		body, err := json.Marshal(map[string]any{"creators": anchors})
		if err != nil {
			return Result{}, err
		}
		return Result{Status: 200, Body: body}, nil
	}
	return Result{}, ErrNoAnchors
}

// ExtractCreatorAnchors scans anchors whose href points at a creator profile.
// Handles are deduplicated, first anchor wins.
func ExtractCreatorAnchors(doc, pageURL string) []CreatorAnchor {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var out []CreatorAnchor
	seen := map[string]struct{}{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if a, ok := anchorFrom(n, base); ok {
				if _, dup := seen[a.CreatorID]; !dup {
					seen[a.CreatorID] = struct{}{}
					out = append(out, a)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func anchorFrom(n *html.Node, base *url.URL) (CreatorAnchor, bool) {
	href := attr(n, "href")
	m := creatorPathPattern.FindStringSubmatch(href)
	if m == nil {
		return CreatorAnchor{}, false
	}
	id := m[1]
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	if id == "" {
		return CreatorAnchor{}, false
	}
	name := strings.Join(strings.Fields(textContent(n)), " ")
	if name == "" {
		name = strings.TrimSpace(attr(n, "title"))
	}
	if name == "" {
		name = id
	}
	a := CreatorAnchor{CreatorID: id, Name: name}
	if img := firstElement(n, atom.Img); img != nil {
		a.IconURL = resolve(base, attr(img, "src"))
	}
	return a, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := firstElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}
