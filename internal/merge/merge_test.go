package merge

import (
	"testing"
	"time"

	"fanboxviewer/internal/models"
)

func TestPosts_CarriesUserState(t *testing.T) {
	opened := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fetched := []models.Post{
		{PostID: "1", Title: "new title"},
		{PostID: "2", Title: "fresh", IsBookmarked: true},
	}
	existing := map[string]models.UserState{
		"1": {PostID: "1", Bookmarked: true, Hidden: true, LastOpenedAt: &opened},
	}
	out := Posts(fetched, existing)
	if !out[0].IsBookmarked || !out[0].IsHidden || out[0].LastOpenedAt == nil || !out[0].LastOpenedAt.Equal(opened) {
		t.Fatalf("out[0]=%+v", out[0])
	}
	if out[0].Title != "new title" {
		t.Fatalf("title=%q", out[0].Title)
	}
	if out[1].IsBookmarked || out[1].IsHidden || out[1].LastOpenedAt != nil {
		t.Fatalf("fetched record must not carry user state: %+v", out[1])
	}
	if fetched[0].IsBookmarked {
		t.Fatalf("input mutated")
	}
}

func TestCreators(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	uid := "123"
	fetched := []models.Creator{{CreatorID: "alice", Name: "Alice"}, {CreatorID: "bob", Name: "Bob"}}
	existing := map[string]models.Creator{"alice": {CreatorID: "alice", UserID: &uid}}
	out := Creators(fetched, existing, now)
	for _, c := range out {
		if !c.IsSupporting || c.LastSyncedAt == nil || !c.LastSyncedAt.Equal(now) {
			t.Fatalf("creator=%+v", c)
		}
	}
	if out[0].UserID == nil || *out[0].UserID != "123" {
		t.Fatalf("user id lost: %+v", out[0])
	}
	if out[1].UserID != nil {
		t.Fatalf("bob user id=%v", *out[1].UserID)
	}
}
