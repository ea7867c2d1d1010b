package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fanboxviewer/internal/models"
	"fanboxviewer/internal/repository"
)

// Clear modes for the local store.
const (
	ClearAll          = "all"
	ClearNonUserState = "non_user_state"
)

type PostService struct {
	Posts    repository.PostRepository
	Creators repository.CreatorRepository
	Tags     repository.TagRepository
	Now      func() time.Time
}

func (s *PostService) ListCreators(ctx context.Context) ([]models.Creator, error) {
	return s.Creators.ListSupportingCreators(ctx)
}

func (s *PostService) ListPosts(ctx context.Context, creatorID string) ([]models.Post, error) {
	creatorID = strings.TrimSpace(creatorID)
	if creatorID == "" {
		return nil, fmt.Errorf("%w: creator id is required", ErrInvalidArgument)
	}
	return s.Posts.ListPostsByCreator(ctx, creatorID)
}

// WatchPosts streams the creator's visible posts, re-emitting after every write.
func (s *PostService) WatchPosts(ctx context.Context, creatorID string) <-chan []models.Post {
	return s.Posts.ObservePosts(ctx, strings.TrimSpace(creatorID))
}

func (s *PostService) WatchBookmarked(ctx context.Context) <-chan []models.Post {
	return s.Posts.ObserveBookmarked(ctx)
}

func (s *PostService) WatchHidden(ctx context.Context) <-chan []models.Post {
	return s.Posts.ObserveHidden(ctx)
}

func (s *PostService) ListBookmarked(ctx context.Context) ([]models.Post, error) {
	return s.Posts.ListBookmarked(ctx)
}

func (s *PostService) ListHidden(ctx context.Context) ([]models.Post, error) {
	return s.Posts.ListHidden(ctx)
}

func (s *PostService) SetBookmarked(ctx context.Context, postID string, v bool) error {
	return mapStoreErr(s.Posts.SetBookmarked(ctx, strings.TrimSpace(postID), v))
}

func (s *PostService) SetHidden(ctx context.Context, postID string, v bool) error {
	return mapStoreErr(s.Posts.SetHidden(ctx, strings.TrimSpace(postID), v))
}

// MarkOpened stamps the post as opened now.
func (s *PostService) MarkOpened(ctx context.Context, postID string) error {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return mapStoreErr(s.Posts.SetLastOpened(ctx, strings.TrimSpace(postID), now))
}

// Clear wipes the local store. ClearAll drops everything including tags;
// ClearNonUserState keeps bookmarked and hidden posts.
func (s *PostService) Clear(ctx context.Context, mode string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ClearNonUserState:
		return s.Posts.ClearNonUserState(ctx)
	case ClearAll:
		if err := s.Posts.ClearAll(ctx); err != nil {
			return 0, err
		}
		if err := s.Creators.ClearCreators(ctx); err != nil {
			return 0, err
		}
		return 0, s.Tags.ClearTags(ctx)
	default:
		return 0, fmt.Errorf("%w: unknown clear mode %q", ErrInvalidArgument, mode)
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

type TagService struct {
	Tags  repository.TagRepository
	Posts repository.PostRepository
}

type CreatorTags struct {
	Tags     []models.CreatorTag `json:"tags"`
	PostTags []models.PostTag    `json:"postTags"`
}

func (s *TagService) ForCreator(ctx context.Context, creatorID string) (CreatorTags, error) {
	tags, err := s.Tags.ListTagsForCreator(ctx, creatorID)
	if err != nil {
		return CreatorTags{}, err
	}
	postTags, err := s.Tags.ListPostTagsForCreator(ctx, creatorID)
	if err != nil {
		return CreatorTags{}, err
	}
	return CreatorTags{Tags: tags, PostTags: postTags}, nil
}

// SetPostTags replaces the tags on a stored post.
func (s *TagService) SetPostTags(ctx context.Context, postID string, names []string) error {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return fmt.Errorf("%w: post id is required", ErrInvalidArgument)
	}
	p, err := s.Posts.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: post %s", ErrNotFound, postID)
	}
	return s.Tags.ReplacePostTags(ctx, postID, p.CreatorID, names)
}
