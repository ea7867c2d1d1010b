package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fanboxviewer/internal/cache"
	"fanboxviewer/internal/db"
	"fanboxviewer/internal/service"
)

// HealthHandler reports liveness and whether the viewer can serve syncs.
// Only the database gates readiness; a missing cache or browser degrades
// syncing but the stored data is still browsable.
type HealthHandler struct {
	DB      *db.DB
	Cache   cache.Store
	Sync    *service.SyncService
	Browser bool
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Health check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness check
// @Description Pings the database and reports the cache, browser engine and last creator sync.
// @Tags health
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil || h.DB.SQL == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_missing"})
		return
	}
	if err := h.DB.SQL.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unreachable", "db": h.DB.Dialect})
		return
	}

	out := gin.H{
		"status":  "ready",
		"db":      h.DB.Dialect,
		"cache":   h.cacheStatus(ctx),
		"browser": h.Browser,
	}
	if h.Sync != nil {
		states, err := h.Sync.SyncState(ctx)
		if err != nil {
			out["sync"] = "error"
		}
		for _, st := range states {
			if st.Scope == service.ScopeCreators && st.LastSuccessAt != nil {
				out["lastCreatorSync"] = st.LastSuccessAt.UTC().Format(time.RFC3339)
			}
		}
	}
	c.JSON(http.StatusOK, out)
}

func (h *HealthHandler) cacheStatus(ctx context.Context) string {
	if h.Cache == nil {
		return "off"
	}
	if _, _, err := h.Cache.Get(ctx, "readyz"); err != nil {
		return "unreachable"
	}
	return "ok"
}
