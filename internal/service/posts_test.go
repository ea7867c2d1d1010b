package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fanboxviewer/internal/models"
)

func TestPostService_ClearModes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	svc := &PostService{Posts: store, Creators: store, Tags: store}
	_ = store.UpsertPosts(ctx, []models.Post{
		{PostID: "1", CreatorID: "alice", Title: "a", URL: "u", PublishedAt: time.Now()},
		{PostID: "2", CreatorID: "alice", Title: "b", URL: "u", PublishedAt: time.Now()},
	})
	if err := svc.SetBookmarked(ctx, "1", true); err != nil {
		t.Fatalf("bookmark: %v", err)
	}

	n, err := svc.Clear(ctx, ClearNonUserState)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if _, err := svc.Clear(ctx, "bogus"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err=%v want ErrInvalidArgument", err)
	}
	if _, err := svc.Clear(ctx, ClearAll); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if list, _ := svc.ListBookmarked(ctx); len(list) != 0 {
		t.Fatalf("bookmarked=%+v", list)
	}
	if err := svc.SetHidden(ctx, "1", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestTagService_SetPostTags(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	svc := &TagService{Tags: store, Posts: store}
	if err := svc.SetPostTags(ctx, "missing", []string{"x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	_ = store.UpsertPosts(ctx, []models.Post{{PostID: "1", CreatorID: "alice", Title: "a", URL: "u", PublishedAt: time.Now()}})
	if err := svc.SetPostTags(ctx, "1", []string{"b", "a", "b"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := svc.ForCreator(ctx, "alice")
	if err != nil || len(got.Tags) != 2 || len(got.PostTags) != 2 || got.Tags[0].Name != "a" {
		t.Fatalf("tags=%+v err=%v", got, err)
	}
}
