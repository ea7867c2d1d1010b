package pagination

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"fanboxviewer/internal/endpoints"
	"fanboxviewer/internal/models"
)

// feed serves a fixed newest-first listing of n posts, one second apart.
type feed struct {
	posts []models.Post
	calls []*endpoints.Cursor
	sizes []int
}

func newFeed(n int) *feed {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := &feed{}
	for i := 0; i < n; i++ {
		f.posts = append(f.posts, models.Post{
			PostID:      strconv.Itoa(1000 - i),
			PublishedAt: base.Add(-time.Duration(i) * time.Second),
		})
	}
	return f
}

func (f *feed) fetch(_ context.Context, cursor *endpoints.Cursor, size int) ([]models.Post, error) {
	f.calls = append(f.calls, cursor)
	f.sizes = append(f.sizes, size)
	start := 0
	if cursor != nil {
		for i, p := range f.posts {
			if p.PostID == cursor.PostID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+size, len(f.posts))
	return f.posts[start:end], nil
}

func TestRun_ShortPage(t *testing.T) {
	f := newFeed(120)
	res := Paginator{PageSize: 50, TotalLimit: 500, Location: time.UTC}.Run(context.Background(), f.fetch)
	if len(res.Posts) != 120 || res.Pages != 3 || res.Stop != StopShortPage {
		t.Fatalf("posts=%d pages=%d stop=%s", len(res.Posts), res.Pages, res.Stop)
	}
	if f.calls[0] != nil {
		t.Fatalf("first page must not carry a cursor")
	}
	if got := *f.calls[1]; got.PostID != "951" || got.PublishedAt != "2024-05-01 11:59:11" {
		t.Fatalf("cursor=%+v", got)
	}
}

func TestRun_TotalLimitBoundsFetches(t *testing.T) {
	f := newFeed(1000)
	res := Paginator{PageSize: 50, TotalLimit: 120, Location: time.UTC}.Run(context.Background(), f.fetch)
	if len(res.Posts) != 120 || res.Stop != StopLimit {
		t.Fatalf("posts=%d stop=%s", len(res.Posts), res.Stop)
	}
	if len(f.calls) != 3 {
		t.Fatalf("calls=%d want ceil(120/50)=3", len(f.calls))
	}
	if f.sizes[2] != 20 {
		t.Fatalf("last size=%d want 20", f.sizes[2])
	}
}

func TestRun_EmptyFirstPage(t *testing.T) {
	f := newFeed(0)
	res := Paginator{}.Run(context.Background(), f.fetch)
	if len(res.Posts) != 0 || res.Stop != StopEmpty || len(f.calls) != 1 {
		t.Fatalf("posts=%d stop=%s calls=%d", len(res.Posts), res.Stop, len(f.calls))
	}
}

func TestRun_PageSizeCapped(t *testing.T) {
	f := newFeed(10)
	Paginator{PageSize: 200}.Run(context.Background(), f.fetch)
	if f.sizes[0] != MaxPageSize {
		t.Fatalf("size=%d want %d", f.sizes[0], MaxPageSize)
	}
}

func TestRun_BadCursor(t *testing.T) {
	fetch := func(context.Context, *endpoints.Cursor, int) ([]models.Post, error) {
		return []models.Post{{PostID: "1"}, {PostID: "2"}}, nil
	}
	res := Paginator{PageSize: 2, TotalLimit: 10}.Run(context.Background(), fetch)
	if res.Stop != StopBadCursor || len(res.Posts) != 2 {
		t.Fatalf("stop=%s posts=%d", res.Stop, len(res.Posts))
	}
}

func TestRun_FetchErrorKeepsPartial(t *testing.T) {
	f := newFeed(200)
	boom := errors.New("boom")
	calls := 0
	fetch := func(ctx context.Context, c *endpoints.Cursor, size int) ([]models.Post, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return f.fetch(ctx, c, size)
	}
	res := Paginator{PageSize: 50, TotalLimit: 500}.Run(context.Background(), fetch)
	if !errors.Is(res.Err, boom) || res.Stop != StopFetchError || len(res.Posts) != 50 {
		t.Fatalf("err=%v stop=%s posts=%d", res.Err, res.Stop, len(res.Posts))
	}
}

func TestRun_Deadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFeed(200)
	fetch := func(c context.Context, cur *endpoints.Cursor, size int) ([]models.Post, error) {
		page, err := f.fetch(c, cur, size)
		cancel()
		return page, err
	}
	res := Paginator{PageSize: 50, TotalLimit: 500}.Run(ctx, fetch)
	if res.Stop != StopDeadline || len(res.Posts) != 50 {
		t.Fatalf("stop=%s posts=%d", res.Stop, len(res.Posts))
	}
}

func TestCursorFrom(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	p := models.Post{PostID: "42", PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, ok := CursorFrom(p, tokyo)
	if !ok || c.PublishedAt != "2024-01-01 09:00:00" || c.PostID != "42" {
		t.Fatalf("cursor=%+v ok=%v", c, ok)
	}
	again, _ := CursorFrom(p, tokyo)
	if again != c {
		t.Fatalf("cursor not deterministic: %+v vs %+v", again, c)
	}
	if _, ok := CursorFrom(models.Post{PostID: "1"}, tokyo); ok {
		t.Fatalf("zero time must not produce a cursor")
	}
}

func TestPages_StopsWhenConsumerStops(t *testing.T) {
	f := newFeed(300)
	n := 0
	for page, err := range (Paginator{PageSize: 50, TotalLimit: 300}).Pages(context.Background(), f.fetch) {
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		n += len(page)
		if n >= 100 {
			break
		}
	}
	if n != 100 || len(f.calls) != 2 {
		t.Fatalf("n=%d calls=%d", n, len(f.calls))
	}
}
