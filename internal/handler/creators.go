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

type CreatorHandler struct {
	Posts  *service.PostService
	Tags   *service.TagService
	Logger *zap.Logger
}

func (h *CreatorHandler) Register(r *gin.Engine) {
	group := r.Group("/api/creators")
	group.GET("", h.list)
	group.GET("/:id/posts", h.posts)
	group.GET("/:id/posts/watch", h.watchPosts)
	group.GET("/:id/tags", h.tags)
}

// @Summary Supporting creators
// @Tags creators
// @Produce json
// @Success 200 {array} models.Creator
// @Router /api/creators [get]
func (h *CreatorHandler) list(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	items, err := h.Posts.ListCreators(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Visible posts for a creator
// @Description Newest first; hidden posts are left out.
// @Tags creators
// @Produce json
// @Param id path string true "creator handle"
// @Success 200 {array} models.Post
// @Router /api/creators/{id}/posts [get]
func (h *CreatorHandler) posts(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	items, err := h.Posts.ListPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Stream a creator's posts
// @Description Websocket; sends the visible post list now and after every store write.
// @Tags creators
// @Param id path string true "creator handle"
// @Success 101
// @Router /api/creators/{id}/posts/watch [get]
func (h *CreatorHandler) watchPosts(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	creatorID := strings.TrimSpace(c.Param("id"))
	if creatorID == "" {
		Error(c, http.StatusBadRequest, "creator id required", nil)
		return
	}
	streamPosts(c, h.Logger, func(ctx context.Context) <-chan []models.Post {
		return h.Posts.WatchPosts(ctx, creatorID)
	})
}

// @Summary Tags for a creator
// @Tags creators
// @Produce json
// @Param id path string true "creator handle"
// @Success 200 {object} service.CreatorTags
// @Router /api/creators/{id}/tags [get]
func (h *CreatorHandler) tags(c *gin.Context) {
	if h.Tags == nil {
		Error(c, http.StatusInternalServerError, "tag service unavailable", nil)
		return
	}
	creatorID := strings.TrimSpace(c.Param("id"))
	if creatorID == "" {
		Error(c, http.StatusBadRequest, "creator id required", nil)
		return
	}
	items, err := h.Tags.ForCreator(c.Request.Context(), creatorID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, nil)
}
