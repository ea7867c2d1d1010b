package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"fanboxviewer/internal/models"
)

// streamPosts upgrades the request and writes every list watch emits until
// the client goes away or the channel closes.
func streamPosts(c *gin.Context, logger *zap.Logger, watch func(ctx context.Context) <-chan []models.Post) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		// Accept has already written the handshake error.
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	// Reads are discarded; the returned ctx ends when the peer closes.
	ctx := conn.CloseRead(c.Request.Context())
	for items := range watch(ctx) {
		if items == nil {
			items = []models.Post{}
		}
		if err := wsjson.Write(ctx, conn, items); err != nil {
			if logger != nil && !errors.Is(err, context.Canceled) && websocket.CloseStatus(err) == -1 {
				logger.Debug("post stream write failed", zap.Error(err))
			}
			return
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}
