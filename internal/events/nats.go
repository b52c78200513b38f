package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	subscriberBuffer = 64
	drainTimeout     = 5 * time.Second
)

func connect(url, name string, opts []nats.Option) (*nats.Conn, error) {
	all := append([]nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts...)
	nc, err := nats.Connect(url, all...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes events as JSON on their topic subject.
type NATSPublisher struct {
	conn   *nats.Conn
	closed chan struct{}
}

// NewNATSPublisher connects to url and reconnects forever. Extra options
// are applied after the defaults.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	closed := make(chan struct{})
	var once sync.Once
	opts = append(opts, nats.ClosedHandler(func(*nats.Conn) {
		once.Do(func() { close(closed) })
	}))
	nc, err := connect(url, "folio-server", opts)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc, closed: closed}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", topic, err)
	}
	return p.conn.Publish(topic, data)
}

// Close flushes pending publishes and returns once the connection is
// closed. A drain that outlasts drainTimeout is cut short.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return nil
	}
	select {
	case <-p.closed:
	case <-time.After(drainTimeout):
		p.conn.Close()
	}
	return nil
}

// NATSSubscriber delivers events from NATS subjects as Envelopes.
type NATSSubscriber struct {
	conn *nats.Conn
}

func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "folio-watch", opts)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Subscribe accepts NATS wildcards ("folio.message.*", "folio.>"). When the
// reader falls behind, events are dropped rather than stalling the
// connection. After cancel returns the channel is closed and empty.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Envelope, func(), error) {
	raw := make(chan *nats.Msg, subscriberBuffer)
	sub, err := s.conn.ChanSubscribe(topic, raw)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The subscription must reach the server before we report success, or
	// events published right after Subscribe returns can be missed.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	out := make(chan Envelope, subscriberBuffer)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		defer func() {
		drain:
			for {
				select {
				case <-out:
				default:
					break drain
				}
			}
			close(out)
		}()
		for {
			select {
			case <-done:
				return
			case msg := <-raw:
				select {
				case out <- Envelope{Topic: msg.Subject, Data: msg.Data}:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
			close(done)
			<-stopped
		})
	}
	return out, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
