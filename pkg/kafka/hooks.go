package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	applogger "FinResearch/pkg/logger"
)

// ConsumerHook defines lifecycle hooks around message handling.
// Returning an error from BeforeHandle skips the handler and counts as a
// failed attempt.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookError represents an error produced by a hook.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs implements ConsumerHook from optional plain functions.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// HookChain runs hooks in order for BeforeHandle and in reverse for
// AfterHandle. Hook panics are recovered.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain creates a hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	for _, h := range c.hooks {
		nextCtx, nextMsg, nextData, err := safeBefore(h, ctx, topic, km, data)
		if err != nil {
			return ctx, km, data, err
		}
		ctx, km, data = nextCtx, nextMsg, nextData
	}
	return ctx, km, data, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		safely(func() { h.AfterHandle(ctx, topic, km, data, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	for _, h := range c.hooks {
		h := h
		safely(func() { h.OnError(ctx, topic, km, data, err) })
	}
}

type ctxKey string

const (
	ctxStartTime ctxKey = "kafka_hook_start_time"
	ctxTraceID   ctxKey = "kafka_hook_trace_id"
)

// TraceIDHeader carries a correlation id set by request producers.
const TraceIDHeader = "trace_id"

// WithTraceID stores a trace id in ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxTraceID, traceID)
}

// TraceIDFrom returns the trace id stored in ctx, if any.
func TraceIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}

// ExtractTraceID reads the trace id header of msg.
func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == TraceIDHeader && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}

// LoggingHook propagates the trace id header into the context and logs each
// handled message with its latency.
func LoggingHook(l *applogger.Logger) ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = WithTraceID(ctx, ExtractTraceID(km))
			return context.WithValue(ctx, ctxStartTime, time.Now()), km, data, nil
		},
		After: func(ctx context.Context, topic string, km kafka.Message, _ []byte, err error) {
			fields := []applogger.Field{
				applogger.String("topic", topic),
				applogger.Int64("offset", km.Offset),
				applogger.String("trace_id", TraceIDFrom(ctx)),
			}
			if start, ok := ctx.Value(ctxStartTime).(time.Time); ok {
				fields = append(fields, applogger.Duration("elapsed_ms", time.Since(start)))
			}
			if err != nil {
				l.Warn("kafka message attempt failed", append(fields, applogger.Error(err))...)
				return
			}
			l.Debug("kafka message handled", fields...)
		},
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, topic string, km kafka.Message, data []byte) (outCtx context.Context, outMsg kafka.Message, outData []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			outCtx, outMsg, outData = ctx, km, data
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, topic, km, data)
}

func safely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
