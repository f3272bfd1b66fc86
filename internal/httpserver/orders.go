package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"tfashion-storefront/internal/service/tracking"
)

const liveWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is read-only and carries no scope data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *handler) currentOrder(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Tracking.Status())
}

func (h *handler) refreshOrder(c *gin.Context) {
	status, err := h.deps.Tracking.Refresh(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handler) getOrder(c *gin.Context) {
	order, err := h.deps.Tracking.Lookup(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// orderLive streams progress ticks of an order over a websocket until the client
// disconnects.
func (h *handler) orderLive(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.deps.Tracking.Lookup(id); err != nil {
		h.writeError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("order_id", id), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The read loop only notices the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	err = h.deps.Tracking.Progress(ctx, func(t tracking.Tick) error {
		if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
			return err
		}
		return conn.WriteJSON(t)
	})
	if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Debug("live feed ended", zap.String("order_id", id), zap.Error(err))
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
