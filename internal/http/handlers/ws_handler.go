package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"swiftcab/internal/dispatch"
)

// WSHandler upgrades driver connections and parks them in the dispatch
// registry so booking offers can be pushed.
type WSHandler struct {
	registry *dispatch.Registry
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

func NewWSHandler(registry *dispatch.Registry, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *WSHandler) Connect(c *gin.Context) {
	driverID, ok := pathID(c, "id")
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.WithError(err).WithField("driver_id", driverID).Warn("websocket upgrade failed")
		return
	}
	h.registry.Add(driverID, conn)
	h.log.WithField("driver_id", driverID).Info("driver socket connected")

	// The socket is push-only. The read loop exists to observe the close.
	go func() {
		defer func() {
			h.registry.Remove(driverID, conn)
			_ = conn.Close()
			h.log.WithField("driver_id", driverID).Info("driver socket disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
