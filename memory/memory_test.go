package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
	"github.com/next-trace/scg-event-dispatcher/contract/events"
	"github.com/next-trace/scg-event-dispatcher/dispatcher"
	"github.com/next-trace/scg-event-dispatcher/memory"
	"github.com/next-trace/scg-event-dispatcher/observer"
)

type testEvt struct{ N int }

type testNotice struct{}

func TestNew_RecordsBothChannels(t *testing.T) {
	d, rec := memory.New(nil)

	noop := func(ctx context.Context, e events.Event, data events.Data) error { return nil }
	d.RegisterDomainEvent(testEvt{}, noop)
	d.RegisterDomainEvent(testEvt{}, noop)
	d.RegisterNotify(testNotice{}, noop)

	if err := d.PublishEvents(t.Context(), testEvt{N: 1}); err != nil {
		t.Fatalf("publish events: %v", err)
	}

	if err := d.PublishNotifies(t.Context(), testNotice{}); err != nil {
		t.Fatalf("publish notifies: %v", err)
	}

	if got := rec.Events(dispatcher.ChannelDomainEvents); len(got) != 2 || got[0].(testEvt).N != 1 {
		t.Fatalf("domain deliveries=%v", got)
	}

	if got := rec.Events(dispatcher.ChannelNotifies); len(got) != 1 {
		t.Fatalf("notify deliveries=%v", got)
	}

	rec.Reset()

	if len(rec.Deliveries()) != 0 {
		t.Fatalf("reset kept deliveries")
	}
}

func TestNew_RecordsFailuresAfterOtherMiddleware(t *testing.T) {
	boom := errors.New("boom")

	// a middleware that swallows the error; the recorder sees the final result
	swallow := func(next events.Handler) events.Handler {
		return func(ctx context.Context, e events.Event, data events.Data) error {
			_ = next(ctx, e, data)
			return nil
		}
	}

	d, rec := memory.New(nil, dispatcher.WithNotifyOptions(observer.WithMiddleware(swallow)))
	d.RegisterNotify(testNotice{}, func(ctx context.Context, e events.Event, data events.Data) error { return boom })
	d.RegisterDomainEvent(testEvt{}, func(ctx context.Context, e events.Event, data events.Data) error { return boom })

	if err := d.PublishNotifies(t.Context(), testNotice{}); err != nil {
		t.Fatalf("swallowed error surfaced: %v", err)
	}

	if err := d.PublishEvents(t.Context(), testEvt{}); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}

	ds := rec.Deliveries()
	if len(ds) != 2 || ds[0].Err != nil || !errors.Is(ds[1].Err, boom) {
		t.Fatalf("deliveries=%+v", ds)
	}
}

func TestNew_RecordsPanickingHandler(t *testing.T) {
	d, rec := memory.New(nil)
	d.RegisterDomainEvent(testEvt{}, func(ctx context.Context, e events.Event, data events.Data) error {
		panic("boom")
	})

	if err := d.PublishEvents(t.Context(), testEvt{N: 3}); !errors.Is(err, derr.ErrHandlerPanic) {
		t.Fatalf("want ErrHandlerPanic, got %v", err)
	}

	ds := rec.Deliveries()
	if len(ds) != 1 {
		t.Fatalf("want 1 delivery, got %d", len(ds))
	}

	if ds[0].Event.(testEvt).N != 3 || !errors.Is(ds[0].Err, derr.ErrHandlerPanic) {
		t.Fatalf("delivery=%+v", ds[0])
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	d, rec := memory.New(nil)
	d.RegisterDomainEvent(testEvt{}, func(ctx context.Context, e events.Event, data events.Data) error { return nil })

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = d.PublishEvents(t.Context(), testEvt{N: i})
		}()
	}

	wg.Wait()

	if n := len(rec.Events(dispatcher.ChannelDomainEvents)); n != 20 {
		t.Fatalf("want 20, got %d", n)
	}
}
