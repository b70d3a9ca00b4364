package rabbitmq

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
)

// NotifyExchange is the durable topic exchange NewWithAMQPConn publishes to by default.
const NotifyExchange = "notifies"

// Config describes a RabbitMQ connection for NewWithAMQPConn.
type Config struct {
	URL         string
	ConnTimeout time.Duration

	// Exchange is declared as a durable topic exchange on every (re)connect. Defaults to NotifyExchange.
	Exchange string

	// MaxBackoff caps the wait between dial attempts. Defaults to 30s.
	MaxBackoff time.Duration

	// Logger receives connection state changes. Nil discards them.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = NotifyExchange
	}

	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}

	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return c
}

// backoff doubles from one second up to max, with up to 25% jitter.
type backoff struct {
	cur, max time.Duration
}

func (b *backoff) next() time.Duration {
	if b.cur == 0 {
		b.cur = time.Second
	}

	d := min(b.cur+rand.N(b.cur/4+1), b.max) //nolint:gosec // jitter only
	b.cur = min(b.cur*2, b.max)

	return d
}

func (b *backoff) reset() { b.cur = 0 }

// session is one live connection with its channel.
type session struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func (s *session) close() {
	_ = s.ch.Close()
	_ = s.conn.Close()
}

// reconnectingPublisher keeps a session alive in the background and publishes on the current one.
type reconnectingPublisher struct {
	cfg Config

	mu    sync.RWMutex
	cur   *session
	ready chan struct{} // closed while cur is set

	done      chan struct{}
	closeOnce sync.Once
}

func newReconnectingPublisher(cfg Config) *reconnectingPublisher {
	rp := &reconnectingPublisher{
		cfg:   cfg,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
	go rp.maintain()

	return rp
}

// current waits until a session is available, the publisher is closed or ctx ends.
func (rp *reconnectingPublisher) current(ctx context.Context) (*session, error) {
	for {
		rp.mu.RLock()
		s, ready := rp.cur, rp.ready
		rp.mu.RUnlock()

		if s != nil {
			return s, nil
		}

		select {
		case <-ready:
		case <-rp.done:
			return nil, fmt.Errorf("%w: rabbitmq publisher closed", derr.ErrPublishFailed)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (rp *reconnectingPublisher) Publish(ctx context.Context, m PubMsg) error {
	s, err := rp.current(ctx)
	if err != nil {
		return err
	}

	return s.ch.PublishWithContext(ctx, m.Exchange, m.RoutingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Headers:      toTable(m.Headers),
		ContentType:  "application/json",
		Body:         m.Body,
	})
}

func (rp *reconnectingPublisher) dial() (*session, error) {
	conn, err := amqp.DialConfig(rp.cfg.URL, amqp.Config{
		Locale:     "en_US",
		Properties: amqp.Table{"product": "scg-event-dispatcher"},
		Dial:       amqp.DefaultDial(rp.cfg.ConnTimeout),
	})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(rp.cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		s := &session{conn: conn, ch: ch}
		s.close()

		return nil, err
	}

	return &session{conn: conn, ch: ch}, nil
}

// maintain dials with backoff, publishes the session, then waits for it to drop.
func (rp *reconnectingPublisher) maintain() {
	bo := &backoff{max: rp.cfg.MaxBackoff}
	log := rp.cfg.Logger

	for {
		s, err := rp.dial()
		if err != nil {
			wait := bo.next()
			log.Warn("rabbitmq dial failed", "err", err, "retry_in", wait)

			t := time.NewTimer(wait)
			select {
			case <-rp.done:
				t.Stop()
				return
			case <-t.C:
			}

			continue
		}

		bo.reset()

		closed := s.conn.NotifyClose(make(chan *amqp.Error, 1))

		rp.mu.Lock()
		select {
		case <-rp.done:
			rp.mu.Unlock()
			s.close()

			return
		default:
		}

		rp.cur = s
		close(rp.ready)
		rp.mu.Unlock()

		log.Info("rabbitmq connected", "exchange", rp.cfg.Exchange)

		select {
		case <-rp.done:
			return
		case amqpErr := <-closed:
			log.Warn("rabbitmq connection lost", "err", amqpErr)

			rp.mu.Lock()
			rp.cur = nil
			rp.ready = make(chan struct{})
			rp.mu.Unlock()

			s.close()
		}
	}
}

func (rp *reconnectingPublisher) close() {
	rp.closeOnce.Do(func() {
		close(rp.done)

		rp.mu.Lock()
		defer rp.mu.Unlock()

		if rp.cur != nil {
			rp.cur.close()
			rp.cur = nil
		}
	})
}

// NewWithAMQPConn returns an Adapter backed by an auto-reconnecting connection and a cleanup func.
// Dialing happens in the background; publishes wait for the first session or for their context to end.
func NewWithAMQPConn(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url required", derr.ErrPublishFailed)
	}

	cfg = cfg.withDefaults()
	rp := newReconnectingPublisher(cfg)

	return NewWithExchange(rp, cfg.Exchange), rp.close, nil
}
