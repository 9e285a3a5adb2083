package controllers

import (
	"net/http"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/bellapacxx/bingo-engine/utils/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// SessionSocket subscribes a display or operator client to one session's
// events. The current snapshot is sent first. Browsers must come from one of
// origins; clients without an Origin header are let through.
func SessionSocket(engine *game.Engine, hub *services.Hub, origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || allowed["*"] || allowed[o]
		},
	}

	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := engine.Session(id); err != nil {
			respondError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Errorf("[WS] upgrade error: %v", err)
			return
		}
		hub.Subscribe(id, conn, func() (game.Snapshot, error) { return engine.Session(id) })
	}
}
