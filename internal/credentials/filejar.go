package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileJar serves cookies exported from a browser as a JSON array. With Watch
// the file is reloaded whenever it changes on disk.
type FileJar struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	cookies []Cookie

	watcher *fsnotify.Watcher
	done    chan struct{}
}

type fileCookie struct {
	Name           string  `json:"name"`
	Value          string  `json:"value"`
	Domain         string  `json:"domain"`
	Path           string  `json:"path,omitempty"`
	Expires        float64 `json:"expires,omitempty"`
	ExpirationDate float64 `json:"expirationDate,omitempty"`
}

func OpenFileJar(path string, watch bool, logger *zap.Logger) (*FileJar, error) {
	if path == "" {
		return nil, errors.New("cookie file path is empty")
	}
	j := &FileJar{path: path, logger: logger, done: make(chan struct{})}
	if err := j.reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if !watch {
		return j, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cookie watcher: %w", err)
	}
	// Watch the directory: editors and exporters usually replace the file.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	j.watcher = w
	go j.watch()
	return j, nil
}

func (j *FileJar) Cookies(ctx context.Context) ([]Cookie, error) {
	_ = ctx
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out, nil
}

func (j *FileJar) Clear(ctx context.Context) error {
	_ = ctx
	j.mu.Lock()
	j.cookies = nil
	j.mu.Unlock()
	return os.WriteFile(j.path, []byte("[]\n"), 0o600)
}

func (j *FileJar) Close() error {
	if j.watcher == nil {
		return nil
	}
	close(j.done)
	return j.watcher.Close()
}

func (j *FileJar) reload() error {
	b, err := os.ReadFile(j.path)
	if err != nil {
		return err
	}
	cookies, err := decodeCookieFile(b)
	if err != nil {
		return fmt.Errorf("decode %s: %w", j.path, err)
	}
	j.mu.Lock()
	j.cookies = cookies
	j.mu.Unlock()
	return nil
}

func (j *FileJar) watch() {
	target := filepath.Clean(j.path)
	for {
		select {
		case <-j.done:
			return
		case ev, ok := <-j.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := j.reload(); err != nil {
				j.warn("cookie file reload failed", err)
				continue
			}
			if j.logger != nil {
				j.logger.Info("cookie file reloaded", zap.String("path", j.path))
			}
		case err, ok := <-j.watcher.Errors:
			if !ok {
				return
			}
			j.warn("cookie watcher error", err)
		}
	}
}

func (j *FileJar) warn(msg string, err error) {
	if j.logger != nil {
		j.logger.Warn(msg, zap.String("path", j.path), zap.Error(err))
	}
}

func decodeCookieFile(b []byte) ([]Cookie, error) {
	var raw []fileCookie
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		if rc.Name == "" {
			continue
		}
		c := Cookie{Name: rc.Name, Value: rc.Value, Domain: rc.Domain, Path: rc.Path}
		exp := rc.Expires
		if exp <= 0 {
			exp = rc.ExpirationDate
		}
		if exp > 0 {
			sec, frac := math.Modf(exp)
			c.Expires = time.Unix(int64(sec), int64(frac*1e9))
		}
		out = append(out, c)
	}
	return out, nil
}
