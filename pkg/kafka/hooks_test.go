package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "FinResearch/pkg/logger"
)

func TestHookChain_OrderAndThreading(t *testing.T) {
	var calls []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				calls = append(calls, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				calls = append(calls, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte(">"))
	require.NoError(t, err)
	assert.Equal(t, ">ab", string(data))

	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)
	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, calls)
}

func TestHookChain_RecoversPanics(t *testing.T) {
	boom := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		},
		After: func(context.Context, string, kafka.Message, []byte, error) { panic("bad after") },
	}
	chain := NewHookChain(boom)

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
	assert.Equal(t, "x", string(data))

	assert.NotPanics(t, func() {
		chain.AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
		chain.OnError(context.Background(), "t", kafka.Message{}, nil, errors.New("e"))
	})
}

func TestLoggingHook_PropagatesTraceID(t *testing.T) {
	h := LoggingHook(applogger.NewNop())
	km := kafka.Message{Headers: []kafka.Header{{Key: TraceIDHeader, Value: []byte("abc-123")}}}

	ctx, _, _, err := h.BeforeHandle(context.Background(), "research.requests", km, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", TraceIDFrom(ctx))
	assert.NotPanics(t, func() { h.AfterHandle(ctx, "research.requests", km, nil, errors.New("x")) })
}

func TestBackoffWithJitter_Bounds(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(100_000_000, 1_000_000_000, attempt)
		assert.Greater(t, int64(d), int64(0))
		assert.LessOrEqual(t, int64(d), int64(1_000_000_000))
	}
}
