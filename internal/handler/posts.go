package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fanboxviewer/internal/models"
	"fanboxviewer/internal/service"
)

type PostHandler struct {
	Posts  *service.PostService
	Tags   *service.TagService
	Logger *zap.Logger
}

func (h *PostHandler) Register(r *gin.Engine) {
	group := r.Group("/api/posts")
	group.GET("/bookmarked", h.bookmarked)
	group.GET("/bookmarked/watch", h.watchBookmarked)
	group.GET("/hidden", h.hidden)
	group.GET("/hidden/watch", h.watchHidden)
	group.PUT("/:id/bookmark", h.setBookmarked)
	group.PUT("/:id/hidden", h.setHidden)
	group.PUT("/:id/opened", h.opened)
	group.PUT("/:id/tags", h.setTags)
}

type flagRequest struct {
	Value *bool `json:"value"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// @Summary Bookmarked posts
// @Description Never-opened first, then most recently opened, then newest.
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /api/posts/bookmarked [get]
func (h *PostHandler) bookmarked(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	items, err := h.Posts.ListBookmarked(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Hidden posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /api/posts/hidden [get]
func (h *PostHandler) hidden(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	items, err := h.Posts.ListHidden(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Stream bookmarked posts
// @Tags posts
// @Success 101
// @Router /api/posts/bookmarked/watch [get]
func (h *PostHandler) watchBookmarked(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	streamPosts(c, h.Logger, func(ctx context.Context) <-chan []models.Post {
		return h.Posts.WatchBookmarked(ctx)
	})
}

// @Summary Stream hidden posts
// @Tags posts
// @Success 101
// @Router /api/posts/hidden/watch [get]
func (h *PostHandler) watchHidden(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	streamPosts(c, h.Logger, func(ctx context.Context) <-chan []models.Post {
		return h.Posts.WatchHidden(ctx)
	})
}

// @Summary Set or clear a bookmark
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "post id"
// @Param body body flagRequest true "{\"value\": true}"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/posts/{id}/bookmark [put]
func (h *PostHandler) setBookmarked(c *gin.Context) {
	h.setFlag(c, h.Posts.SetBookmarked, "bookmarked")
}

// @Summary Hide or unhide a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "post id"
// @Param body body flagRequest true "{\"value\": true}"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/posts/{id}/hidden [put]
func (h *PostHandler) setHidden(c *gin.Context) {
	h.setFlag(c, h.Posts.SetHidden, "hidden")
}

func (h *PostHandler) setFlag(c *gin.Context, set func(context.Context, string, bool) error, field string) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	postID := strings.TrimSpace(c.Param("id"))
	if postID == "" {
		Error(c, http.StatusBadRequest, "post id required", nil)
		return
	}
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := set(c.Request.Context(), postID, *req.Value); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"postId": postID, field: *req.Value}, nil)
}

// @Summary Mark a post as opened
// @Tags posts
// @Produce json
// @Param id path string true "post id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/posts/{id}/opened [put]
func (h *PostHandler) opened(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	postID := strings.TrimSpace(c.Param("id"))
	if err := h.Posts.MarkOpened(c.Request.Context(), postID); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"postId": postID}, nil)
}

// @Summary Replace a post's tags
// @Description Names are trimmed and deduplicated; an empty list clears the tags.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "post id"
// @Param body body tagsRequest true "tag names"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/posts/{id}/tags [put]
func (h *PostHandler) setTags(c *gin.Context) {
	if h.Tags == nil {
		Error(c, http.StatusInternalServerError, "tag service unavailable", nil)
		return
	}
	postID := strings.TrimSpace(c.Param("id"))
	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if err := h.Tags.SetPostTags(c.Request.Context(), postID, req.Tags); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, gin.H{"postId": postID, "tags": len(req.Tags)}, nil)
}
