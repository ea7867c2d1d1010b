// Package pagination walks a creator's post listing page by page using the
// published time and id of the last record as the cursor.
package pagination

import (
	"context"
	"errors"
	"iter"
	"time"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
)

const (
	MaxPageSize       = 50
	DefaultTotalLimit = 5000

	cursorLayout = "2006-01-02 15:04:05"
)

type Stop string

const (
	StopEmpty      Stop = "empty"
	StopLimit      Stop = "limit"
	StopShortPage  Stop = "short_page"
	StopBadCursor  Stop = "bad_cursor"
	StopFetchError Stop = "fetch_error"
	StopDeadline   Stop = "deadline"
)

// Fetch loads one page. cursor is nil for the first page.
type Fetch func(ctx context.Context, cursor *endpoints.Cursor, pageSize int) ([]models.Post, error)

// CursorFrom builds the continuation cursor from the last record of a page.
func CursorFrom(last models.Post, loc *time.Location) (endpoints.Cursor, bool) {
	if last.PostID == "" || last.PublishedAt.IsZero() {
		return endpoints.Cursor{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return endpoints.Cursor{
		PublishedAt: last.PublishedAt.In(loc).Format(cursorLayout),
		PostID:      last.PostID,
	}, true
}

type Paginator struct {
	PageSize   int
	TotalLimit int
	Location   *time.Location
}

type Result struct {
	Posts []models.Post
	Pages int
	Stop  Stop
	Err   error
}

func (p Paginator) pageSize() int {
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

func (p Paginator) totalLimit() int {
	if p.TotalLimit <= 0 {
		return DefaultTotalLimit
	}
	return p.TotalLimit
}

// Pages yields each page as it arrives. A fetch failure is yielded once as
// the final element.
func (p Paginator) Pages(ctx context.Context, fetch Fetch) iter.Seq2[[]models.Post, error] {
	return func(yield func([]models.Post, error) bool) {
		stopped := false
		_, err := p.walk(ctx, fetch, func(page []models.Post) bool {
			if !yield(page, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// Run collects pages until one of the stop conditions holds, keeping the
// remote's newest-first order. Overlapping pages are not deduplicated here;
// the store's keyed upsert absorbs them. On error the records gathered so
// far are returned with it.
func (p Paginator) Run(ctx context.Context, fetch Fetch) Result {
	var res Result
	res.Stop, res.Err = p.walk(ctx, fetch, func(page []models.Post) bool {
		res.Pages++
		res.Posts = append(res.Posts, page...)
		return true
	})
	return res
}

func (p Paginator) walk(ctx context.Context, fetch Fetch, emit func([]models.Post) bool) (Stop, error) {
	size := p.pageSize()
	total := p.totalLimit()
	var cursor *endpoints.Cursor
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return StopDeadline, err
		}
		requested := min(size, total-count)
		page, err := fetch(ctx, cursor, requested)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				return StopDeadline, err
			}
			return StopFetchError, err
		}
		if len(page) == 0 {
			return StopEmpty, nil
		}
		full := len(page) >= requested
		if len(page) > total-count {
			page = page[:total-count]
		}
		count += len(page)
		if !emit(page) {
			return StopLimit, nil
		}
		if count >= total {
			return StopLimit, nil
		}
		if !full {
			return StopShortPage, nil
		}
		next, ok := CursorFrom(page[len(page)-1], p.Location)
		if !ok || (cursor != nil && next == *cursor) {
			return StopBadCursor, nil
		}
		cursor = &next
	}
}
