package presence

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultInboxSize = 64

// MemoryBus connects channels opened in the same process.
type MemoryBus struct {
	mu    sync.RWMutex
	rooms map[string]map[*memoryChannel]struct{}
	inbox int
	clock clockwork.Clock
	log   *zap.Logger
}

type MemoryOption func(*MemoryBus)

// WithInboxSize bounds each channel's pending events; later events drop.
func WithInboxSize(n int) MemoryOption {
	return func(b *MemoryBus) {
		if n > 0 {
			b.inbox = n
		}
	}
}

func WithMemoryClock(clock clockwork.Clock) MemoryOption {
	return func(b *MemoryBus) { b.clock = clock }
}

func NewMemoryBus(log *zap.Logger, opts ...MemoryOption) *MemoryBus {
	b := &MemoryBus{
		rooms: make(map[string]map[*memoryChannel]struct{}),
		inbox: defaultInboxSize,
		log:   log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *MemoryBus) Open(_ context.Context, room string) (Channel, error) {
	ch := &memoryChannel{
		endpoint: newEndpoint(room, b.clock, b.log),
		bus:      b,
		inbox:    make(chan []byte, b.inbox),
		done:     make(chan struct{}),
	}

	b.mu.Lock()
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[*memoryChannel]struct{})
	}
	b.rooms[room][ch] = struct{}{}
	b.mu.Unlock()

	ch.wg.Add(1)
	go ch.run()
	return ch, nil
}

func (b *MemoryBus) remove(ch *memoryChannel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := b.rooms[ch.room]; ok {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.rooms, ch.room)
		}
	}
}

// peers returns the other channels of ch's room.
func (b *MemoryBus) peers(ch *memoryChannel) []*memoryChannel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m := b.rooms[ch.room]
	out := make([]*memoryChannel, 0, len(m))
	for p := range m {
		if p != ch {
			out = append(out, p)
		}
	}
	return out
}

type memoryChannel struct {
	endpoint
	bus    *MemoryBus
	inbox  chan []byte
	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

func (c *memoryChannel) Publish(ev Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	data, err := c.encode(ev)
	if err != nil {
		return err
	}
	for _, p := range c.bus.peers(c) {
		select {
		case p.inbox <- data:
		case <-p.done:
		default:
			c.log.Warn("presence inbox full, dropping event",
				zap.String("room", c.room),
				zap.String("type", string(ev.Type())))
		}
	}
	return nil
}

func (c *memoryChannel) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.inbox:
			c.receive(data)
		}
	}
}

func (c *memoryChannel) Close() error {
	c.closed.Do(func() {
		c.bus.remove(c)
		close(c.done)
	})
	c.wg.Wait()
	return nil
}
