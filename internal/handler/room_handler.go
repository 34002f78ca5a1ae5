package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "focusmate/internal/errors"
	"focusmate/internal/middleware"
	"focusmate/internal/presence"
	"focusmate/internal/service"
)

const (
	roomWriteTimeout = 10 * time.Second
	roomPongWait     = 60 * time.Second
	roomPingInterval = 30 * time.Second
)

// RoomHandler serves the room relay WebSocket at /api/rooms/:code/ws.
type RoomHandler struct {
	hub    *service.RoomHub
	logger *zap.Logger
}

func NewRoomHandler(hub *service.RoomHub, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{hub: hub, logger: logger}
}

// ServeWS upgrades the request and relays every valid presence envelope to
// the other connections of the room.
func (h *RoomHandler) ServeWS(c *gin.Context) {
	room := strings.TrimSpace(c.Param("code"))
	if room == "" {
		writeError(c, apperrors.BadRequest("invalid_room", "room code is required"))
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	peer, cleanup := h.hub.Register(room, middleware.UserID(c), conn)
	defer cleanup()

	go h.writePump(peer)
	h.readPump(peer)
}

func (h *RoomHandler) readPump(p *service.RoomPeer) {
	_ = p.Conn.SetReadDeadline(time.Now().Add(roomPongWait))
	p.Conn.SetPongHandler(func(string) error {
		return p.Conn.SetReadDeadline(time.Now().Add(roomPongWait))
	})

	for {
		mt, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("room read error", zap.String("room", p.Room), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := presence.Validate(data); err != nil {
			h.logger.Debug("dropping invalid room frame",
				zap.String("room", p.Room),
				zap.String("user_id", p.UserID),
				zap.Error(err))
			continue
		}
		h.hub.Relay(p, data)
	}
}

func (h *RoomHandler) writePump(p *service.RoomPeer) {
	ticker := time.NewTicker(roomPingInterval)
	defer func() {
		ticker.Stop()
		_ = p.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-p.Send:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(roomWriteTimeout))
			if !ok {
				_ = p.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.Conn.SetWriteDeadline(time.Now().Add(roomWriteTimeout))
			if err := p.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
