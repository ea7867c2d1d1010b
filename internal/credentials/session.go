package credentials

import (
	"context"
	"errors"
	"time"
)

const sessionOrigin = "https://fanbox.cc/"

// Session answers whether the jar holds a login and can drop it.
type Session struct {
	Jar Jar
}

func (s *Session) IsAuthenticated(ctx context.Context) bool {
	if s == nil || s.Jar == nil {
		return false
	}
	cookies, err := s.Jar.Cookies(ctx)
	if err != nil {
		return false
	}
	now := time.Now()
	for _, c := range cookies {
		if c.VisibleTo(sessionOrigin, now) {
			return true
		}
	}
	return false
}

// Logout clears every cookie in the jar.
func (s *Session) Logout(ctx context.Context) error {
	if s == nil || s.Jar == nil {
		return errors.New("cookie jar is not configured")
	}
	return s.Jar.Clear(ctx)
}

// MultiJar reads from every jar in order and clears all of them.
type MultiJar []Jar

func (m MultiJar) Cookies(ctx context.Context) ([]Cookie, error) {
	var (
		out  []Cookie
		errs []error
	)
	for _, j := range m {
		if j == nil {
			continue
		}
		cookies, err := j.Cookies(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, cookies...)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (m MultiJar) Clear(ctx context.Context) error {
	var errs []error
	for _, j := range m {
		if j == nil {
			continue
		}
		if err := j.Clear(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
