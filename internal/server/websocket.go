package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleMonitoringSocket upgrades to WebSocket and answers every client
// message with a fresh metrics snapshot. The message body is ignored.
func (s *Server) handleMonitoringSocket(c *gin.Context) {
	log := s.requestLog(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("websocket closed")
			}
			return
		}
		if err := conn.WriteJSON(s.collector.Snapshot(ctx)); err != nil {
			log.WithError(err).Warn("websocket write failed")
			return
		}
	}
}
