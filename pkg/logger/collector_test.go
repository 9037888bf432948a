package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *memPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &memPublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "research.logs", Publisher: pub})

	fields := map[string]interface{}{"section": "news"}
	c.AddLog("warn", "research section unavailable", fields, "usecase/research.go:1")
	c.AddLog("warn", "research section unavailable", fields, "usecase/research.go:1")
	c.AddLog("error", "report delivery failed", nil, "usecase/pipeline.go:1")
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "research.logs", pub.topic)
	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 2, counts["research section unavailable"])
	assert.Equal(t, 1, counts["report delivery failed"])
}

func TestLogger_WarnFeedsCollector(t *testing.T) {
	pub := &memPublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 1, Topic: "t", Publisher: pub})

	l.With(String("run_id", "r1")).Warn("slow provider", String("provider", "coingecko"))
	l.Info("not collected")
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 1)
	assert.Equal(t, "slow provider", pub.batches[0][0].Message)
	assert.Equal(t, "coingecko", pub.batches[0][0].Fields["provider"])
}
