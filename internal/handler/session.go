package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fanboxviewer/internal/service"
)

type SessionHandler struct {
	Service *service.SessionService
}

func (h *SessionHandler) Register(r *gin.Engine) {
	r.GET("/api/session", h.status)
	r.POST("/api/session/logout", h.logout)
}

// @Summary Session status
// @Tags session
// @Produce json
// @Success 200 {object} service.SessionStatus
// @Router /api/session [get]
func (h *SessionHandler) status(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "session service unavailable", nil)
		return
	}
	Ok(c, h.Service.Status(c.Request.Context()), nil)
}

// @Summary Log out
// @Description Clears stored site cookies.
// @Tags session
// @Produce json
// @Success 200 {object} service.SessionStatus
// @Router /api/session/logout [post]
func (h *SessionHandler) logout(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "session service unavailable", nil)
		return
	}
	if err := h.Service.Logout(c.Request.Context()); err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, h.Service.Status(c.Request.Context()), nil)
}
