package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/transport"
)

type fakeTransport struct {
	name  string
	calls int
	reply func(c endpoints.Candidate) (transport.Result, error)
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Execute(_ context.Context, c endpoints.Candidate) (transport.Result, error) {
	f.calls++
	return f.reply(c)
}

func countItems(body []byte) []string {
	var out []string
	for _, part := range strings.Split(string(body), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func candidates(urls ...string) []endpoints.Candidate {
	out := make([]endpoints.Candidate, 0, len(urls))
	for _, u := range urls {
		out = append(out, endpoints.Candidate{URL: u, Method: "GET"})
	}
	return out
}

func TestRun_FallsThroughToSecondStage(t *testing.T) {
	direct := &fakeTransport{name: "direct", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{Status: 403, Body: []byte("denied")}, &transport.HTTPError{Status: 403}
	}}
	scripted := &fakeTransport{name: "scripted", reply: func(c endpoints.Candidate) (transport.Result, error) {
		if c.URL == "b" {
			return transport.Result{Status: 200, Body: []byte("x,y,z")}, nil
		}
		return transport.Result{Status: 200, Body: []byte("")}, nil
	}}
	dom := &fakeTransport{name: "dom", reply: func(endpoints.Candidate) (transport.Result, error) {
		t.Fatalf("dom stage must not run")
		return transport.Result{}, nil
	}}

	out, err := Run(context.Background(), []Stage{
		{Transport: direct, Candidates: candidates("a", "b")},
		{Transport: scripted, Candidates: candidates("a", "b")},
		{Transport: dom, Candidates: candidates("page")},
	}, countItems, nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(out.Records) != 3 || out.Winner == nil || out.Winner.Transport != "scripted" || out.Winner.URL != "b" {
		t.Fatalf("out=%+v", out)
	}
	if len(out.Attempts) != 4 || out.Attempts[0].Status != 403 || out.Attempts[0].Error == "" {
		t.Fatalf("attempts=%+v", out.Attempts)
	}
	if dom.calls != 0 {
		t.Fatalf("dom calls=%d", dom.calls)
	}
}

func TestRun_ExhaustionIsEmptyNotError(t *testing.T) {
	empty := &fakeTransport{name: "direct", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{Status: 200, Body: []byte(strings.Repeat(" ", 5000))}, nil
	}}
	out, err := Run(context.Background(), []Stage{{Transport: empty, Candidates: candidates("a", "b")}}, countItems, nil)
	if err != nil || !out.Empty() || out.Winner != nil {
		t.Fatalf("out=%+v err=%v", out, err)
	}
	if a := out.Attempts[0]; len(a.Snippet) != snippetLen || len(a.Raw) != rawLen || a.Len != 5000 {
		t.Fatalf("snippet=%d raw=%d len=%d", len(a.Snippet), len(a.Raw), a.Len)
	}
}

func TestRun_BrowserDisabledSkipsStage(t *testing.T) {
	disabled := &fakeTransport{name: "scripted", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{}, transport.ErrBrowserDisabled
	}}
	out, err := Run(context.Background(), []Stage{{Transport: disabled, Candidates: candidates("a", "b", "c")}}, countItems, nil)
	if err != nil || disabled.calls != 1 || len(out.Attempts) != 1 {
		t.Fatalf("calls=%d attempts=%d err=%v", disabled.calls, len(out.Attempts), err)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &fakeTransport{name: "direct", reply: func(endpoints.Candidate) (transport.Result, error) {
		cancel()
		return transport.Result{}, context.Canceled
	}}
	out, err := Run(ctx, []Stage{{Transport: tr, Candidates: candidates("a", "b")}}, countItems, nil)
	if !errors.Is(err, context.Canceled) || tr.calls != 1 || len(out.Attempts) != 1 {
		t.Fatalf("err=%v calls=%d", err, tr.calls)
	}
}

func TestRun_LogsAttemptFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	direct := &fakeTransport{name: "direct", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{Status: 403, Body: []byte("denied")}, &transport.HTTPError{Status: 403}
	}}
	scripted := &fakeTransport{name: "scripted", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{Status: 200, Body: []byte("x")}, nil
	}}
	if _, err := Run(context.Background(), []Stage{
		{Transport: direct, Candidates: candidates("a")},
		{Transport: scripted, Candidates: candidates("a")},
	}, countItems, zap.New(core)); err != nil {
		t.Fatalf("err=%v", err)
	}

	failed := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(failed) != 1 {
		t.Fatalf("warn entries=%d want 1", len(failed))
	}
	fields := failed[0].ContextMap()
	if fields["transport"] != "direct" || fields["method"] != "GET" || fields["url"] != "a" || fields["status"] != int64(403) || fields["len"] != int64(6) {
		t.Fatalf("fields=%v", fields)
	}
	if _, ok := fields["error"]; !ok {
		t.Fatalf("missing error field: %v", fields)
	}
	ok := logs.FilterLevelExact(zapcore.DebugLevel).All()
	if len(ok) != 1 || ok[0].ContextMap()["transport"] != "scripted" {
		t.Fatalf("debug entries=%v", ok)
	}
}

func TestRun_RawSliceKeepsRunesWhole(t *testing.T) {
	body := []byte(strings.Repeat("あ", 2000)) // 3 bytes each
	tr := &fakeTransport{name: "direct", reply: func(endpoints.Candidate) (transport.Result, error) {
		return transport.Result{Status: 200, Body: body}, nil
	}}
	out, _ := Run(context.Background(), []Stage{{Transport: tr, Candidates: candidates("a")}},
		func([]byte) []string { return nil }, nil)
	a := out.Attempts[0]
	if len(a.Snippet) != 198 || len(a.Raw) != 3999 {
		t.Fatalf("snippet=%d raw=%d", len(a.Snippet), len(a.Raw))
	}
	if !utf8.ValidString(a.Snippet) || !utf8.ValidString(a.Raw) {
		t.Fatalf("split rune in debug log")
	}
}
