package presence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"focusmate/internal/localstore"
)

const DefaultLinger = 2 * time.Second

// FileTransport shares events through the local store so that separate
// processes on one machine can exchange them without a broker. Each event
// is written under its own key in <store>/bc/<room>, picked up by the other
// processes' watchers and removed after a linger window.
type FileTransport struct {
	store  *localstore.Store
	linger time.Duration
	clock  clockwork.Clock
	log    *zap.Logger
}

func NewFileTransport(store *localstore.Store, linger time.Duration, clock clockwork.Clock, log *zap.Logger) *FileTransport {
	if linger <= 0 {
		linger = DefaultLinger
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FileTransport{store: store, linger: linger, clock: clock, log: log}
}

func (t *FileTransport) Open(_ context.Context, room string) (Channel, error) {
	bc, err := t.store.Sub("bc")
	if err != nil {
		return nil, err
	}
	dir, err := bc.Sub(sanitizeRoom(room))
	if err != nil {
		return nil, err
	}

	t.sweep(dir)

	ch := &fileChannel{
		endpoint: newEndpoint(room, t.clock, t.log),
		dir:      dir,
		linger:   t.linger,
		seen:     make(map[string]struct{}),
		pending:  make(map[string]clockwork.Timer),
	}
	stop, err := dir.Watch(ch.onChange)
	if err != nil {
		return nil, fmt.Errorf("watching room %s: %w", room, err)
	}
	ch.stop = stop
	return ch, nil
}

// sweep removes events left behind by processes that exited before their
// linger window ran out.
func (t *FileTransport) sweep(dir *localstore.Store) {
	keys, err := dir.Keys()
	if err != nil {
		t.log.Debug("listing presence events", zap.Error(err))
		return
	}
	cutoff := t.clock.Now().Add(-t.linger).UnixNano()
	for _, key := range keys {
		stamp, _, _ := strings.Cut(key, "-")
		written, err := strconv.ParseInt(stamp, 10, 64)
		if err == nil && written > cutoff {
			continue
		}
		if err := dir.Remove(key); err != nil {
			t.log.Debug("removing stale presence event", zap.String("key", key), zap.Error(err))
		}
	}
}

type fileChannel struct {
	endpoint
	dir    *localstore.Store
	linger time.Duration
	stop   func() error

	mu      sync.Mutex
	closed  bool
	seq     uint64
	seen    map[string]struct{}
	pending map[string]clockwork.Timer
}

func (c *fileChannel) Publish(ev Event) error {
	data, err := c.encode(ev)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.seq++
	key := fmt.Sprintf("%d-%d-%s", c.clock.Now().UnixNano(), c.seq, c.origin)
	c.mu.Unlock()

	if err := c.dir.Set(key, data); err != nil {
		return err
	}

	timer := c.clock.AfterFunc(c.linger, func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
		if err := c.dir.Remove(key); err != nil {
			c.log.Debug("removing presence event", zap.String("key", key), zap.Error(err))
		}
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		timer.Stop()
		_ = c.dir.Remove(key)
		return nil
	}
	c.pending[key] = timer
	c.mu.Unlock()
	return nil
}

func (c *fileChannel) onChange(change localstore.Change) {
	if strings.HasSuffix(change.Key, "-"+c.origin) {
		return
	}

	c.mu.Lock()
	if change.Removed {
		delete(c.seen, change.Key)
		c.mu.Unlock()
		return
	}
	if _, dup := c.seen[change.Key]; dup || c.closed {
		c.mu.Unlock()
		return
	}
	c.seen[change.Key] = struct{}{}
	c.mu.Unlock()

	data, err := c.dir.Get(change.Key)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			c.log.Debug("reading presence event", zap.String("key", change.Key), zap.Error(err))
		}
		return
	}
	c.receive(data)
}

// Close stops watching and removes events this channel still has lingering.
func (c *fileChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for key, timer := range pending {
		timer.Stop()
		_ = c.dir.Remove(key)
	}
	return c.stop()
}
