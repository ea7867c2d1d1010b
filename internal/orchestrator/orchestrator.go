// Package orchestrator tries transports and candidates in a fixed order until
// one response parses into at least one record.
package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/transport"
)

const (
	snippetLen = 200
	rawLen     = 4000
)

type Stage struct {
	Transport  transport.Transport
	Candidates []endpoints.Candidate
}

// Attempt is one line of the per-sync debug log.
type Attempt struct {
	Transport string `json:"transport"`
	Method    string `json:"method"`
	URL       string `json:"url"`
	Status    int    `json:"status"`
	Len       int    `json:"len"`
	Snippet   string `json:"snippet,omitempty"`
	Raw       string `json:"raw,omitempty"`
	Records   int    `json:"records"`
	Error     string `json:"error,omitempty"`
}

// Fields renders the attempt as structured log fields.
func (a Attempt) Fields() []zap.Field {
	return []zap.Field{
		zap.String("transport", a.Transport),
		zap.String("method", a.Method),
		zap.String("url", a.URL),
		zap.Int("status", a.Status),
		zap.Int("len", a.Len),
		zap.Int("records", a.Records),
	}
}

type Outcome[T any] struct {
	Records  []T
	Winner   *Attempt
	Attempts []Attempt
}

func (o Outcome[T]) Empty() bool {
	return len(o.Records) == 0
}

// Run walks stages in order and each stage's candidates in order. The first
// response that parses into a record ends the walk. Exhausting every stage is
// not an error: the outcome is simply empty. Only context expiry is returned
// as an error, together with the attempts made so far.
func Run[T any](ctx context.Context, stages []Stage, parse func([]byte) []T, logger *zap.Logger) (Outcome[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out Outcome[T]
	for _, st := range stages {
		if st.Transport == nil {
			continue
		}
		for _, c := range st.Candidates {
			if err := ctx.Err(); err != nil {
				return out, err
			}
			res, err := st.Transport.Execute(ctx, c)
			a := Attempt{
				Transport: st.Transport.Name(),
				Method:    c.Method,
				URL:       c.URL,
				Status:    res.Status,
				Len:       len(res.Body),
				Snippet:   transport.Truncate(res.Body, snippetLen),
				Raw:       transport.Truncate(res.Body, rawLen),
			}
			var records []T
			if err != nil {
				a.Error = err.Error()
			} else {
				records = parse(res.Body)
				a.Records = len(records)
			}
			out.Attempts = append(out.Attempts, a)
			if err != nil {
				logger.Warn("sync attempt failed", append(a.Fields(), zap.Error(err))...)
			} else {
				logger.Debug("sync attempt", a.Fields()...)
			}

			if len(records) > 0 {
				out.Records = records
				out.Winner = &out.Attempts[len(out.Attempts)-1]
				return out, nil
			}
			if errors.Is(err, transport.ErrBrowserDisabled) {
				break
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
