package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"fanboxviewer/internal/endpoints"
)

// fetchScript runs inside the site's own page so the request carries the
// page's live session. It picks the CSRF token from the meta tag, the
// document cookies or localStorage.
const fetchScript = `async (method, url, body) => {
  const csrf = (() => {
    try {
      const m = document.querySelector('meta[name="csrf-token"]');
      if (m && m.content) return m.content;
    } catch (e) {}
    try {
      for (const part of document.cookie.split(';')) {
        const s = part.trim();
        const i = s.indexOf('=');
        const k = i > 0 ? s.substring(0, i) : s;
        if (/csrf/i.test(k)) return i > 0 ? s.substring(i + 1) : '';
      }
    } catch (e) {}
    try {
      return localStorage.getItem('csrfToken') || localStorage.getItem('csrf_token') || localStorage.getItem('csrf');
    } catch (e) {}
    return null;
  })();
  try {
    const headers = {'Accept': 'application/json, text/plain, */*'};
    if (method === 'POST') headers['Content-Type'] = 'application/json';
    if (csrf) headers['x-csrf-token'] = csrf;
    const res = await fetch(url, {
      method: method,
      headers: headers,
      credentials: 'include',
      body: method === 'POST' ? (body || '{}') : undefined,
    });
    const text = await res.text();
    return JSON.stringify({status: res.status, body: text});
  } catch (e) {
    return JSON.stringify({error: String(e)});
  }
}`

type scriptResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	Error  string `json:"error"`
}

// Scripted executes candidates with fetch() inside a page loaded from the
// site origin. Calls are serialised: a page cannot evaluate concurrently.
type Scripted struct {
	Page   Page
	Origin string

	mu     sync.Mutex
	loaded bool
}

func (s *Scripted) Name() string { return NameScripted }

func (s *Scripted) Execute(ctx context.Context, c endpoints.Candidate) (Result, error) {
	if s.Page == nil {
		return Result{}, ErrBrowserDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		origin := s.Origin
		if origin == "" {
			origin = endpoints.DefaultWWWBase + "/"
		}
		if err := s.Page.Navigate(ctx, origin); err != nil {
			return Result{}, fmt.Errorf("load origin: %w", err)
		}
		s.loaded = true
	}

	raw, err := s.Page.Eval(ctx, fetchScript, c.Method, c.URL, c.Body)
	if err != nil {
		return Result{}, fmt.Errorf("evaluate fetch: %w", err)
	}
	var out scriptResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Result{}, fmt.Errorf("decode script result: %w", err)
	}
	if out.Error != "" {
		return Result{}, errors.New("in-page fetch: " + out.Error)
	}
	res := Result{Status: out.Status, Body: []byte(out.Body)}
	if !res.OK() {
		return res, &HTTPError{Status: out.Status, Body: Truncate(res.Body, 200)}
	}
	return res, nil
}
