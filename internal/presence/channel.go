package presence

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrNoTransport is returned by Open when neither transport is configured.
var ErrNoTransport = errors.New("presence: no transport configured")

// Handler receives events published by other channels of the same room.
type Handler func(Event)

// Channel is one participant's connection to a room.
type Channel interface {
	// Publish fans ev out to every other channel of the room.
	Publish(ev Event) error
	// Subscribe registers h and returns a function that removes it.
	Subscribe(h Handler) (unsubscribe func())
	Close() error
}

// Transport opens room channels over one medium.
type Transport interface {
	Open(ctx context.Context, room string) (Channel, error)
}

// Open tries primary and falls back when it cannot be opened. Either
// transport may be nil.
func Open(ctx context.Context, room string, primary, fallback Transport, log *zap.Logger) (Channel, error) {
	var err error
	if primary != nil {
		var ch Channel
		ch, err = primary.Open(ctx, room)
		if err == nil {
			return ch, nil
		}
		if fallback == nil {
			return nil, err
		}
		log.Warn("presence transport unavailable, using fallback",
			zap.String("room", room),
			zap.Error(err))
	}
	if fallback == nil {
		return nil, ErrNoTransport
	}
	return fallback.Open(ctx, room)
}

// handlers is the subscriber set shared by every transport.
type handlers struct {
	mu   sync.RWMutex
	next int
	m    map[int]Handler
}

func (h *handlers) add(fn Handler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		h.m = make(map[int]Handler)
	}
	id := h.next
	h.next++
	h.m[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.m, id)
			h.mu.Unlock()
		})
	}
}

func (h *handlers) dispatch(ev Event) {
	h.mu.RLock()
	fns := make([]Handler, 0, len(h.m))
	for _, fn := range h.m {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// endpoint holds what every channel implementation needs: an origin id,
// subscribers, a clock for timestamps and a logger.
type endpoint struct {
	room   string
	origin string
	subs   handlers
	clock  clockwork.Clock
	log    *zap.Logger
}

func newEndpoint(room string, clock clockwork.Clock, log *zap.Logger) endpoint {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return endpoint{
		room:   room,
		origin: uuid.NewString(),
		clock:  clock,
		log:    log,
	}
}

func (e *endpoint) Subscribe(h Handler) func() {
	return e.subs.add(h)
}

func (e *endpoint) encode(ev Event) ([]byte, error) {
	return Encode(ev, e.origin, e.clock.Now().UnixMilli())
}

// receive decodes data and dispatches it unless this endpoint sent it.
func (e *endpoint) receive(data []byte) {
	env, ev, err := Decode(data)
	if err != nil {
		e.log.Debug("dropping malformed presence event", zap.String("room", e.room), zap.Error(err))
		return
	}
	if env.Origin == e.origin {
		return
	}
	e.subs.dispatch(ev)
}

// sanitizeRoom maps a room code onto the characters safe for NATS subject
// tokens and file names.
func sanitizeRoom(room string) string {
	var b strings.Builder
	for _, r := range room {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
