package gormrepository

import (
	"context"
	"hash/fnv"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fanboxviewer/internal/repository"
)

var _ repository.Repository = (*Store)(nil)

const (
	lockStripes = 64
	// sqlite caps bound parameters per statement; stay well below it.
	inChunk = 500
)

type Store struct {
	db     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time

	locks   keyLocker
	changes notifier
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, changes: notifier{subs: map[int]chan struct{}{}}}
}

// InTx runs fn in one transaction and wakes observers once it commits.
// The *Tx store methods take the tx handed to fn; they do not take key locks.
func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	s.changes.notify()
	return nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// keyLocker serialises writers per identity key. Keys hash onto a fixed set
// of mutexes, always taken in ascending order.
type keyLocker struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyLocker) lock(keys ...string) func() {
	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		h := fnv.New32a()
		_, _ = h.Write([]byte(k))
		idx = append(idx, int(h.Sum32()%lockStripes))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	for _, i := range idx {
		l.stripes[i].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			l.stripes[idx[i]].Unlock()
		}
	}
}

func prefixed(prefix string, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = prefix + id
	}
	return out
}

// notifier wakes observers after committed writes. Wake-ups coalesce.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func (n *notifier) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	if n.subs == nil {
		n.subs = map[int]chan struct{}{}
	}
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()
	return ch, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// observe emits query's result now and again after every write, until ctx
// is done. The channel is closed on exit.
func observe[T any](ctx context.Context, s *Store, name string, query func(context.Context) ([]T, error)) <-chan []T {
	out := make(chan []T, 1)
	wake, cancel := s.changes.subscribe()
	go func() {
		defer close(out)
		defer cancel()
		for {
			items, err := query(ctx)
			switch {
			case err == nil:
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			case ctx.Err() != nil:
				return
			default:
				s.logger().Warn("observe query failed", zap.String("query", name), zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-wake:
			}
		}
	}()
	return out
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	// Fresh statement per batch; clauses carry over.
	db = db.Session(&gorm.Session{})
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		if err := db.Create(items[i:end]).Error; err != nil {
			return err
		}
	}
	return nil
}

func chunks(ids []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(ids); i += size {
		out = append(out, ids[i:min(i+size, len(ids))])
	}
	return out
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
