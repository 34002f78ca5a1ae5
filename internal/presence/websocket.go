package presence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsSendBuffer   = 64
)

// WebSocketTransport connects to the server room relay. The relay forwards
// every frame to the other connections of the room.
type WebSocketTransport struct {
	serverURL  string
	cookieName string
	token      string
	dialer     *websocket.Dialer
	clock      clockwork.Clock
	log        *zap.Logger
}

func NewWebSocketTransport(serverURL, cookieName, token string, log *zap.Logger) *WebSocketTransport {
	return &WebSocketTransport{
		serverURL:  serverURL,
		cookieName: cookieName,
		token:      token,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		clock: clockwork.NewRealClock(),
		log:   log,
	}
}

// RoomURL returns the relay endpoint for room on serverURL.
func RoomURL(serverURL, room string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = u.Path + "/api/rooms/" + url.PathEscape(room) + "/ws"
	return u.String(), nil
}

func (t *WebSocketTransport) Open(ctx context.Context, room string) (Channel, error) {
	if t.token == "" {
		return nil, fmt.Errorf("room relay requires a signed-in session")
	}
	target, err := RoomURL(t.serverURL, room)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Cookie", (&http.Cookie{Name: t.cookieName, Value: t.token}).String())

	conn, resp, err := t.dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial room relay: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("dial room relay: %w", err)
	}

	ch := &wsChannel{
		endpoint: newEndpoint(room, t.clock, t.log),
		conn:     conn,
		send:     make(chan []byte, wsSendBuffer),
		done:     make(chan struct{}),
	}
	ch.wg.Add(2)
	go ch.readPump()
	go ch.writePump()
	return ch, nil
}

type wsChannel struct {
	endpoint
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

func (c *wsChannel) Publish(ev Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	data, err := c.encode(ev)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
	default:
		c.log.Warn("presence send buffer full, dropping event",
			zap.String("room", c.room),
			zap.String("type", string(ev.Type())))
	}
	return nil
}

func (c *wsChannel) readPump() {
	defer c.wg.Done()
	defer c.shutdown()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("room relay read error", zap.String("room", c.room), zap.Error(err))
			}
			return
		}
		c.receive(data)
	}
}

func (c *wsChannel) writePump() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug("room relay write error", zap.String("room", c.room), zap.Error(err))
				c.shutdown()
				return
			}
		}
	}
}

func (c *wsChannel) shutdown() {
	c.closed.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = c.conn.Close()
	})
}

func (c *wsChannel) Close() error {
	c.shutdown()
	c.wg.Wait()
	return nil
}
