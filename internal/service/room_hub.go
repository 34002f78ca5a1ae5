package service

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const roomSendBuffer = 64

// RoomPeer is one WebSocket connection joined to a room.
type RoomPeer struct {
	Room   string
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// RoomHub relays presence frames between the connections of each room.
// It keeps no room state; clients own their replicas.
type RoomHub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*RoomPeer]struct{}
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
}

func NewRoomHub(maxMessageSize int64, allowedOrigins []string, log *zap.Logger) *RoomHub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = struct{}{}
	}

	return &RoomHub{
		rooms:      make(map[string]map[*RoomPeer]struct{}),
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024 * 4,
			WriteBufferSize: 1024 * 4,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r, allowed)
			},
		},
	}
}

// Register adds conn to room and returns a cleanup function that removes it.
func (h *RoomHub) Register(room, userID string, conn *websocket.Conn) (*RoomPeer, func()) {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	p := &RoomPeer{
		Room:   room,
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, roomSendBuffer),
	}

	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*RoomPeer]struct{})
	}
	h.rooms[room][p] = struct{}{}
	h.mu.Unlock()

	h.log.Info("room peer registered",
		zap.String("room", room),
		zap.String("user_id", userID))

	return p, func() { h.unregister(p) }
}

func (h *RoomHub) unregister(p *RoomPeer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.rooms[p.Room]
	if !ok {
		return
	}
	if _, ok := m[p]; !ok {
		return
	}
	delete(m, p)
	if len(m) == 0 {
		delete(h.rooms, p.Room)
	}
	close(p.Send)
	h.log.Info("room peer unregistered",
		zap.String("room", p.Room),
		zap.String("user_id", p.UserID))
}

// Relay queues data for every peer of from's room except from itself.
// Peers with a full buffer miss the frame.
func (h *RoomHub) Relay(from *RoomPeer, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for p := range h.rooms[from.Room] {
		if p == from {
			continue
		}
		select {
		case p.Send <- data:
		default:
			h.log.Warn("room peer send buffer full",
				zap.String("room", p.Room),
				zap.String("user_id", p.UserID))
		}
	}
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *RoomHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

func (h *RoomHub) PeerCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// originAllowed accepts non-browser clients (no Origin), same-host pages and
// the configured CORS origins.
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := allowed["*"]; ok {
		return true
	}
	if _, ok := allowed[origin]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
