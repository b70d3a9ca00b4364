package nats_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/next-trace/scg-event-dispatcher/adapters/nats"
	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
)

type fakeClient struct {
	calls []struct {
		subject string
		data    []byte
		headers map[string]string
	}
	err error
}

func (f *fakeClient) Publish(subject string, data []byte, headers map[string]string) error {
	f.calls = append(f.calls, struct {
		subject string
		data    []byte
		headers map[string]string
	}{subject, data, headers})

	return f.err
}

type userNotice struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

type routed struct{}

func (routed) Topic() string { return "users.changed" }

func TestNATS_Publish(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.New(fc)

	po := events.PublishOptions{Topic: "bot.outbox", Key: "k", Headers: map[string]string{"ph": "pv"}}
	if err := ad.Publish(t.Context(), userNotice{UserID: 5, Text: "hi"}, po); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(fc.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fc.calls))
	}

	c := fc.calls[0]
	if c.subject != "bot.outbox" {
		t.Fatalf("subject mismatch: %s", c.subject)
	}

	var got userNotice
	if err := json.Unmarshal(c.data, &got); err != nil || got.UserID != 5 {
		t.Fatalf("body: %s (%v)", c.data, err)
	}

	if c.headers["key"] != "k" || c.headers["ph"] != "pv" {
		t.Fatalf("headers missing or wrong: %+v", c.headers)
	}
}

func TestNATS_DerivedSubjects(t *testing.T) {
	fc := &fakeClient{}
	ad := nats.New(fc)

	_ = ad.Publish(t.Context(), userNotice{}, events.PublishOptions{})
	_ = ad.Publish(t.Context(), routed{}, events.PublishOptions{})

	if fc.calls[0].subject != "notify.userNotice" || fc.calls[1].subject != "users.changed" {
		t.Fatalf("subjects: %q %q", fc.calls[0].subject, fc.calls[1].subject)
	}
}

func TestNATS_NilClientError(t *testing.T) {
	ad := nats.New(nil)

	if err := ad.Publish(t.Context(), userNotice{}, events.PublishOptions{}); !errors.Is(err, derr.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed for nil client, got %v", err)
	}
}

func TestNATS_Publish_ErrorWrapping_And_ContextCancel(t *testing.T) {
	// client returns generic error -> should wrap
	boom := errors.New("boom")
	ad := nats.New(&fakeClient{err: boom})

	err := ad.Publish(t.Context(), userNotice{}, events.PublishOptions{})
	if !errors.Is(err, derr.ErrPublishFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	// client returns context.Canceled -> propagate as-is
	ad2 := nats.New(&fakeClient{err: context.Canceled})

	err = ad2.Publish(t.Context(), userNotice{}, events.PublishOptions{})
	if !errors.Is(err, context.Canceled) || errors.Is(err, derr.ErrPublishFailed) {
		t.Fatalf("want bare context.Canceled, got %v", err)
	}
}

func TestNATS_SerializationFailure(t *testing.T) {
	ad := nats.New(&fakeClient{})

	err := ad.Publish(t.Context(), map[string]any{"ch": make(chan int)}, events.PublishOptions{})
	if !errors.Is(err, derr.ErrSerializationFailed) {
		t.Fatalf("want ErrSerializationFailed, got %v", err)
	}
}
