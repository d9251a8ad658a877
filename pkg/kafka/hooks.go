package kafka

import (
	"context"
	"fmt"
	"time"

	applogger "FinAdvisor/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning a non-nil error from BeforeHandle skips the handler and counts as a failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
	OnError(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return ctx, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

func (NoopHook) OnError(context.Context, kafka.Message, error) {}

// HookFuncs adapts plain functions to ConsumerHook. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
	Err    func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, km)
}

func (h HookFuncs) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, km, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, km kafka.Message, err error) {
	if h.Err != nil {
		h.Err(ctx, km, err)
	}
}

// HookChain runs hooks in order for Before/OnError and in reverse for After.
// A panicking hook is converted to an error and never crashes the consumer.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain creates a composable hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, error) {
	for _, h := range c.hooks {
		next, err := safeBefore(h, ctx, km)
		if err != nil {
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		safely(func() { h.AfterHandle(ctx, km, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, km kafka.Message, err error) {
	for _, h := range c.hooks {
		safely(func() { h.OnError(ctx, km, err) })
	}
}

// LoggingHook logs failed and slow messages.
type LoggingHook struct {
	Log  *applogger.Logger
	Slow time.Duration
}

type startKey struct{}

func (h LoggingHook) BeforeHandle(ctx context.Context, _ kafka.Message) (context.Context, error) {
	return context.WithValue(ctx, startKey{}, time.Now()), nil
}

func (h LoggingHook) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok || h.Slow <= 0 || err != nil {
		return
	}
	if d := time.Since(start); d >= h.Slow {
		applogger.OrNop(h.Log).Warn("kafka message slow",
			applogger.String("topic", km.Topic),
			applogger.Int("partition", km.Partition),
			applogger.Duration("duration_ms", d),
		)
	}
}

func (h LoggingHook) OnError(_ context.Context, km kafka.Message, err error) {
	applogger.OrNop(h.Log).Warn("kafka message attempt failed",
		applogger.String("topic", km.Topic),
		applogger.Int64("offset", km.Offset),
		applogger.Error(err),
	)
}

func safeBefore(h ConsumerHook, ctx context.Context, km kafka.Message) (next context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = ctx, fmt.Errorf("hook panic: %v", r)
		}
	}()
	return h.BeforeHandle(ctx, km)
}

func safely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
