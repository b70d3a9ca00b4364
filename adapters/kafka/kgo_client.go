package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
)

// Config describes a franz-go producer for NewWithKgo.
type Config struct {
	Brokers  []string
	ClientID string
	TLS      *tls.Config

	// Idempotent enables the idempotent producer, which always waits for all in-sync replicas.
	// Acks is only honoured when Idempotent is false; the zero value keeps the client default.
	Idempotent bool
	Acks       kgo.Acks

	Compression []kgo.CompressionCodec

	// Linger batches records for up to this long before sending. Zero sends immediately.
	Linger time.Duration
}

func clientOptions(cfg Config) []kgo.Opt {
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}

	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(cfg.TLS))
	}

	if len(cfg.Compression) > 0 {
		opts = append(opts, kgo.ProducerBatchCompression(cfg.Compression...))
	}

	if cfg.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(cfg.Linger))
	}

	if cfg.Idempotent {
		return append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}

	opts = append(opts, kgo.DisableIdempotentWrite())
	if cfg.Acks != (kgo.Acks{}) {
		opts = append(opts, kgo.RequiredAcks(cfg.Acks))
	}

	return opts
}

// syncProducer produces one record at a time and waits for the broker acknowledgement.
type syncProducer struct{ cl *kgo.Client }

func (p syncProducer) Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	rec := kgo.KeySliceRecord(key, value)
	rec.Topic = topic

	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	return p.cl.ProduceSync(ctx, rec).FirstErr()
}

// NewWithKgo builds an Adapter on a franz-go client. Brokers are dialled lazily on the first produce.
// The returned cleanup closes the client.
func NewWithKgo(cfg Config) (*Adapter, func(), error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil, fmt.Errorf("%w: kafka brokers required", derr.ErrPublishFailed)
	}

	cl, err := kgo.NewClient(clientOptions(cfg)...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kafka client init: %w", derr.ErrPublishFailed, err)
	}

	return New(syncProducer{cl: cl}), cl.Close, nil
}
