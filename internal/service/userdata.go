package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fanboxviewer/internal/models"
	"fanboxviewer/internal/repository"
)

const (
	ExportType    = "fanboxviewer-user-state"
	ExportVersion = 1
)

// The schema checks shape only. Unknown type or version values get their own
// errors, and blank entries are skipped during import.
const userDataSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"type": "string"},
    "version": {"type": "integer"},
    "exportedAt": {"type": "integer"},
    "tags": {"type": "array"},
    "postTags": {"type": "array"},
    "postStates": {"type": "array"}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func userDataValidator() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(userDataSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("userdata.json", doc); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("userdata.json")
	})
	return schema, schemaErr
}

type ExportDocument struct {
	Type       string            `json:"type"`
	Version    int               `json:"version"`
	ExportedAt int64             `json:"exportedAt"`
	Tags       []ExportTag       `json:"tags"`
	PostTags   []ExportPostTag   `json:"postTags"`
	PostStates []ExportPostState `json:"postStates"`
}

type ExportTag struct {
	CreatorID string `json:"creatorId"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

type ExportPostTag struct {
	PostID    string `json:"postId"`
	CreatorID string `json:"creatorId"`
	TagName   string `json:"tagName"`
}

type ExportPostState struct {
	PostID     string `json:"postId"`
	CreatorID  string `json:"creatorId"`
	Bookmarked bool   `json:"bookmarked"`
	Hidden     bool   `json:"hidden"`
}

type ExportSummary struct {
	TagCount       int `json:"tagCount"`
	PostTagCount   int `json:"postTagCount"`
	PostStateCount int `json:"postStateCount"`
}

type ImportSummary struct {
	TagCount         int   `json:"tagCount"`
	PostTagCount     int   `json:"postTagCount"`
	BookmarkCount    int   `json:"bookmarkCount"`
	HiddenCount      int   `json:"hiddenCount"`
	AppliedBookmarks int64 `json:"appliedBookmarks"`
	AppliedHidden    int64 `json:"appliedHidden"`
}

type UserDataStore interface {
	repository.TagRepository
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	ListUserState(ctx context.Context) ([]models.UserState, error)
	SetBookmarkedBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error)
	SetHiddenBulkTx(ctx context.Context, tx *gorm.DB, postIDs []string, v bool) (int64, error)
}

// UserDataService moves the user's own annotations (tags, bookmarks, hidden
// posts) in and out. Remote data is never part of the document.
type UserDataService struct {
	Store  UserDataStore
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *UserDataService) Export(ctx context.Context) (ExportDocument, ExportSummary, error) {
	tags, err := s.Store.ListAllTags(ctx)
	if err != nil {
		return ExportDocument{}, ExportSummary{}, err
	}
	postTags, err := s.Store.ListAllPostTags(ctx)
	if err != nil {
		return ExportDocument{}, ExportSummary{}, err
	}
	states, err := s.Store.ListUserState(ctx)
	if err != nil {
		return ExportDocument{}, ExportSummary{}, err
	}

	doc := ExportDocument{
		Type:       ExportType,
		Version:    ExportVersion,
		ExportedAt: s.now().UnixMilli(),
		Tags:       make([]ExportTag, 0, len(tags)),
		PostTags:   make([]ExportPostTag, 0, len(postTags)),
		PostStates: make([]ExportPostState, 0, len(states)),
	}
	for _, t := range tags {
		doc.Tags = append(doc.Tags, ExportTag{CreatorID: t.CreatorID, Name: t.Name, CreatedAt: t.CreatedAt.UnixMilli()})
	}
	for _, pt := range postTags {
		doc.PostTags = append(doc.PostTags, ExportPostTag{PostID: pt.PostID, CreatorID: pt.CreatorID, TagName: pt.TagName})
	}
	for _, st := range states {
		if !st.Bookmarked && !st.Hidden {
			continue
		}
		doc.PostStates = append(doc.PostStates, ExportPostState{
			PostID:     st.PostID,
			CreatorID:  st.CreatorID,
			Bookmarked: st.Bookmarked,
			Hidden:     st.Hidden,
		})
	}
	return doc, ExportSummary{
		TagCount:       len(doc.Tags),
		PostTagCount:   len(doc.PostTags),
		PostStateCount: len(doc.PostStates),
	}, nil
}

// Import applies a previously exported document. Bookmarks and hidden flags
// only land on posts already stored; the summary reports how many matched.
func (s *UserDataService) Import(ctx context.Context, data []byte) (ImportSummary, error) {
	v, err := userDataValidator()
	if err != nil {
		return ImportSummary{}, fmt.Errorf("compile schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return ImportSummary{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := v.Validate(inst); err != nil {
		return ImportSummary{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	root := gjson.ParseBytes(data)
	if root.Get("type").String() != ExportType {
		return ImportSummary{}, ErrUnsupportedFile
	}
	version := ExportVersion
	if vv := root.Get("version"); vv.Exists() {
		version = int(vv.Int())
	}
	if version != ExportVersion {
		return ImportSummary{}, fmt.Errorf("%w: unsupported export version: %d", ErrInvalidArgument, version)
	}

	now := s.now()
	var tags []models.CreatorTag
	root.Get("tags").ForEach(func(_, o gjson.Result) bool {
		if !o.IsObject() {
			return true
		}
		creatorID := o.Get("creatorId").String()
		name := o.Get("name").String()
		if strings.TrimSpace(creatorID) == "" || strings.TrimSpace(name) == "" {
			return true
		}
		created := now
		if ms := o.Get("createdAt"); ms.Exists() {
			created = time.UnixMilli(ms.Int()).UTC()
		}
		tags = append(tags, models.CreatorTag{CreatorID: creatorID, Name: name, CreatedAt: created})
		return true
	})

	var postTags []models.PostTag
	root.Get("postTags").ForEach(func(_, o gjson.Result) bool {
		if !o.IsObject() {
			return true
		}
		pt := models.PostTag{
			PostID:    o.Get("postId").String(),
			CreatorID: o.Get("creatorId").String(),
			TagName:   o.Get("tagName").String(),
		}
		if strings.TrimSpace(pt.PostID) == "" || strings.TrimSpace(pt.CreatorID) == "" || strings.TrimSpace(pt.TagName) == "" {
			return true
		}
		postTags = append(postTags, pt)
		return true
	})

	var bookmarkIDs, hiddenIDs []string
	root.Get("postStates").ForEach(func(_, o gjson.Result) bool {
		if !o.IsObject() {
			return true
		}
		id := o.Get("postId").String()
		if strings.TrimSpace(id) == "" {
			return true
		}
		if o.Get("bookmarked").Bool() {
			bookmarkIDs = append(bookmarkIDs, id)
		}
		if o.Get("hidden").Bool() {
			hiddenIDs = append(hiddenIDs, id)
		}
		return true
	})

	// All or nothing: a failed step leaves the store as it was.
	var appliedBookmarks, appliedHidden int64
	err = s.Store.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Store.InsertTagsTx(ctx, tx, tags); err != nil {
			return fmt.Errorf("insert tags: %w", err)
		}
		if err := s.Store.InsertPostTagsTx(ctx, tx, postTags); err != nil {
			return fmt.Errorf("insert post tags: %w", err)
		}
		n, err := s.Store.SetBookmarkedBulkTx(ctx, tx, bookmarkIDs, true)
		if err != nil {
			return fmt.Errorf("apply bookmarks: %w", err)
		}
		appliedBookmarks = n
		n, err = s.Store.SetHiddenBulkTx(ctx, tx, hiddenIDs, true)
		if err != nil {
			return fmt.Errorf("apply hidden: %w", err)
		}
		appliedHidden = n
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	summary := ImportSummary{
		TagCount:         len(tags),
		PostTagCount:     len(postTags),
		BookmarkCount:    len(bookmarkIDs),
		HiddenCount:      len(hiddenIDs),
		AppliedBookmarks: appliedBookmarks,
		AppliedHidden:    appliedHidden,
	}
	if s.Logger != nil {
		s.Logger.Info("user data imported",
			zap.Int("tags", summary.TagCount),
			zap.Int("post_tags", summary.PostTagCount),
			zap.Int64("bookmarks", summary.AppliedBookmarks),
			zap.Int64("hidden", summary.AppliedHidden),
		)
	}
	return summary, nil
}

func (s *UserDataService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
