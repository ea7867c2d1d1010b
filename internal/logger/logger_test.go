package logger

import (
	"testing"

	"fanboxviewer/internal/config"
)

func TestNew_FallsBackOnBadLevel(t *testing.T) {
	l, err := New(config.LogConfig{Level: "loud", Encoding: "json"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !l.Core().Enabled(0) {
		t.Fatalf("info level should be enabled")
	}
	if l.Core().Enabled(-1) {
		t.Fatalf("debug level should be disabled")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected nop logger")
	}
}
