package errors_test

import (
	"errors"
	"strings"
	"testing"

	derr "github.com/next-trace/scg-event-dispatcher/contract/errors"
)

func TestCodeAndVars(t *testing.T) {
	e := derr.Code(derr.ErrCodePublishFailed)
	if e.Error() != derr.ErrCodePublishFailed {
		t.Fatalf("unexpected error string: %s", e.Error())
	}

	// exported variables must carry their codes
	tests := []struct {
		err  error
		code string
	}{
		{derr.ErrHandlerFailed, derr.ErrCodeHandlerFailed},
		{derr.ErrHandlerPanic, derr.ErrCodeHandlerPanic},
		{derr.ErrNoHandlers, derr.ErrCodeNoHandlers},
		{derr.ErrNilEvent, derr.ErrCodeNilEvent},
		{derr.ErrContextMissing, derr.ErrCodeContextMissing},
		{derr.ErrContextTypeMismatch, derr.ErrCodeContextTypeMismatch},
		{derr.ErrPublisherMissing, derr.ErrCodePublisherMissing},
		{derr.ErrPublishFailed, derr.ErrCodePublishFailed},
		{derr.ErrSerializationFailed, derr.ErrCodeSerializationFailed},
		{derr.ErrTransportUnsupported, derr.ErrCodeTransportUnsupported},
	}

	for _, tc := range tests {
		if !errors.Is(tc.err, derr.Code(tc.code)) {
			t.Fatalf("expected %s to be %s", tc.err, tc.code)
		}
	}
}

func TestHandlerError_UnwrapsBoth(t *testing.T) {
	cause := errors.New("boom")
	he := &derr.HandlerError{Channel: "domain_events", EventType: "users.Created", Index: 1, Err: cause}

	if !errors.Is(he, derr.ErrHandlerFailed) {
		t.Fatalf("want ErrHandlerFailed in chain")
	}

	if !errors.Is(he, cause) {
		t.Fatalf("want cause in chain")
	}

	msg := he.Error()
	if !strings.Contains(msg, "domain_events") || !strings.Contains(msg, "#1") || !strings.Contains(msg, "boom") {
		t.Fatalf("unexpected message: %s", msg)
	}
}
