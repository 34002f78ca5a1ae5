package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "focusmate.room."

// NATSTransport publishes room events on core NATS subjects, one subject
// per room. Every subscriber, including the publisher's own connection,
// receives the message; channels drop their own origin.
type NATSTransport struct {
	nc    *nats.Conn
	clock clockwork.Clock
	log   *zap.Logger
}

// DialNATS connects to url. The connection reconnects in the background.
func DialNATS(url string, log *zap.Logger) (*NATSTransport, error) {
	opts := []nats.Option{
		nats.Name("focusmate-presence"),
		nats.Timeout(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return NewNATSTransport(nc, log), nil
}

func NewNATSTransport(nc *nats.Conn, log *zap.Logger) *NATSTransport {
	return &NATSTransport{nc: nc, clock: clockwork.NewRealClock(), log: log}
}

// Subject returns the NATS subject used for room.
func Subject(room string) string {
	return subjectPrefix + sanitizeRoom(room)
}

func (t *NATSTransport) Open(_ context.Context, room string) (Channel, error) {
	if t.nc == nil || t.nc.IsClosed() {
		return nil, ErrClosed
	}

	ch := &natsChannel{
		endpoint: newEndpoint(room, t.clock, t.log),
		nc:       t.nc,
		subject:  Subject(room),
	}
	sub, err := t.nc.Subscribe(ch.subject, func(msg *nats.Msg) {
		ch.receive(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", ch.subject, err)
	}
	// Make sure the server knows about the subscription before the first publish.
	if err := t.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}
	ch.sub = sub
	return ch, nil
}

// Close drains the shared connection.
func (t *NATSTransport) Close() {
	if t.nc != nil {
		_ = t.nc.Drain()
	}
}

type natsChannel struct {
	endpoint
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

func (c *natsChannel) Publish(ev Event) error {
	if !c.sub.IsValid() {
		return ErrClosed
	}
	data, err := c.encode(ev)
	if err != nil {
		return err
	}
	if err := c.nc.Publish(c.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", c.subject, err)
	}
	return nil
}

func (c *natsChannel) Close() error {
	if !c.sub.IsValid() {
		return nil
	}
	if err := c.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", c.subject, err)
	}
	return nil
}
