package nats

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
)

// Config describes a real NATS connection for NewWithNATS.
type Config struct {
	URL           string
	Name          string
	ConnTimeout   time.Duration
	MaxReconnects int
	ReconnectWait time.Duration

	// FlushTimeout bounds the round trip that confirms each publish reached the server.
	// Zero waits with the connection's default timeout.
	FlushTimeout time.Duration

	// Logger receives connection state changes. Nil discards them.
	Logger *slog.Logger
}

type connClient struct {
	nc    *nats.Conn
	flush time.Duration
}

func (c connClient) Publish(subject string, data []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = data

	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	if err := c.nc.PublishMsg(msg); err != nil {
		return err
	}

	if c.flush > 0 {
		return c.nc.FlushTimeout(c.flush)
	}

	return c.nc.Flush()
}

func connOptions(cfg Config) []nats.Option {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	opts := []nats.Option{
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrlRedacted())
		}),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	if cfg.ConnTimeout > 0 {
		opts = append(opts, nats.Timeout(cfg.ConnTimeout))
	}

	if cfg.MaxReconnects != 0 {
		opts = append(opts, nats.MaxReconnects(cfg.MaxReconnects))
	}

	if cfg.ReconnectWait > 0 {
		opts = append(opts, nats.ReconnectWait(cfg.ReconnectWait))
	}

	return opts
}

// NewWithNATS dials NATS and returns an Adapter with a cleanup that drains the connection.
func NewWithNATS(cfg Config) (*Adapter, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("%w: nats url required", derr.ErrPublishFailed)
	}

	nc, err := nats.Connect(cfg.URL, connOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: nats connect: %w", derr.ErrPublishFailed, err)
	}

	cleanup := func() {
		if nc.IsClosed() {
			return
		}

		// Drain flushes pending publishes and closes asynchronously; Close makes shutdown synchronous.
		_ = nc.Drain()
		nc.Close()
	}

	return New(connClient{nc: nc, flush: cfg.FlushTimeout}), cleanup, nil
}
