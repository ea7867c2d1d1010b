package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fanboxviewer/internal/service"
)

const maxImportBytes = 16 << 20

type UserDataHandler struct {
	Service *service.UserDataService
	Posts   *service.PostService
	Logger  *zap.Logger
}

func (h *UserDataHandler) Register(r *gin.Engine) {
	r.GET("/api/userdata/export", h.export)
	r.POST("/api/userdata/import", h.importData)
	r.POST("/api/store/clear", h.clear)
}

// @Summary Export user data
// @Description Tags, post tags, bookmarks and hidden flags as a portable document.
// @Tags userdata
// @Produce json
// @Success 200 {object} service.ExportDocument
// @Router /api/userdata/export [get]
func (h *UserDataHandler) export(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "userdata service unavailable", nil)
		return
	}
	doc, summary, err := h.Service.Export(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, doc, map[string]any{
		"tags":        summary.TagCount,
		"post_tags":   summary.PostTagCount,
		"post_states": summary.PostStateCount,
	})
}

// @Summary Import user data
// @Description Accepts a document produced by export. State lands only on posts already stored.
// @Tags userdata
// @Accept json
// @Produce json
// @Param body body service.ExportDocument true "export document"
// @Success 200 {object} service.ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/userdata/import [post]
func (h *UserDataHandler) importData(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "userdata service unavailable", nil)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		Error(c, http.StatusRequestEntityTooLarge, "body too large", nil)
		return
	}
	summary, err := h.Service.Import(c.Request.Context(), body)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, summary, nil)
}

// @Summary Clear the local store
// @Description mode=non_user_state (default) keeps bookmarked and hidden posts; mode=all wipes everything.
// @Tags userdata
// @Produce json
// @Param mode query string false "all or non_user_state"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/store/clear [post]
func (h *UserDataHandler) clear(c *gin.Context) {
	if h.Posts == nil {
		Error(c, http.StatusInternalServerError, "post service unavailable", nil)
		return
	}
	mode := c.DefaultQuery("mode", service.ClearNonUserState)
	deleted, err := h.Posts.Clear(c.Request.Context(), mode)
	if err != nil {
		ServiceError(c, err)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("store cleared", zap.String("mode", mode), zap.Int64("deleted", deleted))
	}
	Ok(c, gin.H{"mode": mode, "deleted": deleted}, nil)
}
