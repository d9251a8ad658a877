package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type flakyHandler struct {
	fails int
	calls int
}

func (h *flakyHandler) Topic() string { return "rates" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T) *Consumer {
	t.Helper()
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}), WithConsumerRetry(2, time.Millisecond, 2*time.Millisecond))
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return c
}

func TestHandleWithRetryRecovers(t *testing.T) {
	c := newTestConsumer(t)
	h := &flakyHandler{fails: 2}
	if err := c.handleWithRetry(h, kafka.Message{Topic: "rates"}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if h.calls != 3 {
		t.Fatalf("calls = %d", h.calls)
	}
}

func TestHandleWithRetryGivesUp(t *testing.T) {
	c := newTestConsumer(t)
	h := &flakyHandler{fails: 10}
	var hookErrors int
	c.WithConsumerHook(HookFuncs{Err: func(context.Context, kafka.Message, error) { hookErrors++ }})

	if err := c.handleWithRetry(h, kafka.Message{Topic: "rates"}); err == nil {
		t.Fatalf("expected error")
	}
	if h.calls != 3 || hookErrors != 3 {
		t.Fatalf("calls = %d, hook errors = %d", h.calls, hookErrors)
	}
}

type panicHandler struct{}

func (panicHandler) Topic() string { return "rates" }

func (panicHandler) Handle(context.Context, []byte) error { panic("boom") }

func TestHandleOnceRecoversPanic(t *testing.T) {
	c := newTestConsumer(t)
	if err := c.handleOnce(panicHandler{}, kafka.Message{Topic: "rates"}); err == nil {
		t.Fatalf("expected panic converted to error")
	}
}

func TestHookChainStopsOnBeforeError(t *testing.T) {
	var afterCalled bool
	chain := NewHookChain(
		HookFuncs{Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
			return ctx, errors.New("reject")
		}},
		HookFuncs{After: func(context.Context, kafka.Message, error) { afterCalled = true }},
		nil,
	)
	if _, err := chain.BeforeHandle(context.Background(), kafka.Message{}); err == nil {
		t.Fatalf("expected error")
	}
	chain.AfterHandle(context.Background(), kafka.Message{}, nil)
	if !afterCalled {
		t.Fatalf("after hook not called")
	}
}
