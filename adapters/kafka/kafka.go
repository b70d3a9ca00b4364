package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

// Writer is a minimal Kafka-like writer interface.
// Users can adapt segmentio/kafka-go or any other client to this.
type Writer interface {
	Write(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// Adapter implements events.Publisher using an injected Writer.
type Adapter struct {
	Writer Writer
}

var _ events.Publisher = (*Adapter)(nil)

// New creates a new Kafka adapter instance with the provided writer.
func New(w Writer) *Adapter { return &Adapter{Writer: w} }

// Publish writes e as a JSON record. opts.Key becomes the record key.
func (a *Adapter) Publish(ctx context.Context, e events.Event, opts events.PublishOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if a.Writer == nil {
		return fmt.Errorf("kafka publish: %w", derr.ErrPublishFailed)
	}

	val, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka publish serialize: %w", errors.Join(derr.ErrSerializationFailed, err))
	}

	var key []byte
	if opts.Key != "" {
		key = []byte(opts.Key)
	}

	if err = a.Writer.Write(ctx, topicFor(e, opts), key, val, maps.Clone(opts.Headers)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return fmt.Errorf("kafka publish write: %w", errors.Join(derr.ErrPublishFailed, err))
	}

	return nil
}

func topicFor(e events.Event, o events.PublishOptions) string {
	if o.Topic != "" {
		return o.Topic
	}

	return events.TopicOf(e)
}
