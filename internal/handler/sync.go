package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fanboxviewer/internal/service"
)

type SyncHandler struct {
	Service *service.SyncService
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync")
	group.POST("/creators", h.syncCreators)
	group.POST("/creators/:id/posts", h.syncPosts)
	group.GET("/state", h.state)
	group.GET("/runs", h.runs)
}

// @Summary Sync supporting creators
// @Description Fetches the creators the signed-in user supports and stores them.
// @Tags sync
// @Produce json
// @Success 200 {object} service.SyncResult
// @Failure 502 {object} map[string]any
// @Router /api/sync/creators [post]
func (h *SyncHandler) syncCreators(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "sync service unavailable", nil)
		return
	}
	result, err := h.Service.SyncCreators(c.Request.Context())
	if err != nil {
		h.warn("creator sync failed", err)
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}

// @Summary Sync posts for a creator
// @Description Pages through a creator's posts, keeping bookmark and hidden state.
// @Tags sync
// @Produce json
// @Param id path string true "creator handle or numeric user id"
// @Param limit query int false "maximum posts to fetch (default from config)"
// @Success 200 {object} service.SyncResult
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/sync/creators/{id}/posts [post]
func (h *SyncHandler) syncPosts(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "sync service unavailable", nil)
		return
	}
	creatorID := strings.TrimSpace(c.Param("id"))
	if creatorID == "" {
		Error(c, http.StatusBadRequest, "creator id required", nil)
		return
	}
	limit := intQuery(c, "limit", 0)
	result, err := h.Service.SyncPosts(c.Request.Context(), creatorID, limit)
	if err != nil {
		h.warn("post sync failed", err, zap.String("creator_id", creatorID))
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}

// @Summary Sync state per scope
// @Tags sync
// @Produce json
// @Success 200 {array} models.SyncState
// @Router /api/sync/state [get]
func (h *SyncHandler) state(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "sync service unavailable", nil)
		return
	}
	items, err := h.Service.SyncState(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

// @Summary Recent sync runs
// @Tags sync
// @Produce json
// @Param scope query string false "creators or posts:<creatorId>"
// @Param limit query int false "max runs (default 50)"
// @Success 200 {array} models.SyncRun
// @Router /api/sync/runs [get]
func (h *SyncHandler) runs(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "sync service unavailable", nil)
		return
	}
	scope := strings.TrimSpace(c.Query("scope"))
	limit := intQuery(c, "limit", 50)
	items, err := h.Service.SyncRuns(c.Request.Context(), scope, limit)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, map[string]any{"limit": limit, "total": len(items)})
}

func (h *SyncHandler) warn(msg string, err error, fields ...zap.Field) {
	if h.Logger == nil || service.IsCancelled(err) {
		return
	}
	h.Logger.Warn(msg, append(fields, zap.Error(err))...)
}
