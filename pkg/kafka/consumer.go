package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	applogger "FinResearch/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	// HandleTimeout bounds a single Handle call.
	HandleTimeout time.Duration
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets a Kafka topic name for DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerHandleTimeout bounds each handler invocation.
func WithConsumerHandleTimeout(d time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		if d > 0 {
			c.HandleTimeout = d
		}
	}
}

// Consumer reads registered topics and dispatches messages to a worker pool.
// Messages of one partition are handled one at a time.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	msgChan  chan *message
	dlq      *kafka.Writer
	hook     ConsumerHook
	l        *applogger.Logger

	lockMu    sync.Mutex
	partLocks map[partitionKey]*sync.Mutex
}

type partitionKey struct {
	topic     string
	partition int
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(l *applogger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:       "finresearch",
		WorkerCount:   1,
		BufferSize:    10,
		RetryMax:      2,
		BackoffMin:    100 * time.Millisecond,
		BackoffMax:    2 * time.Second,
		MinBytes:      1,
		MaxBytes:      1e6,
		HandleTimeout: 2 * time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if l == nil {
		l = applogger.NewNop()
	}

	c := &Consumer{
		cfg:       cfg,
		readers:   make(map[string]*kafka.Reader),
		handlers:  make(map[string]MessageHandler),
		stopChan:  make(chan struct{}),
		msgChan:   make(chan *message, cfg.BufferSize),
		partLocks: make(map[partitionKey]*sync.Mutex),
		hook:      NoopHook{},
		l:         l,
	}

	initConsumerMetricsOnce()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
// Must be called before Start.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.l.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start creates one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no kafka handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}

	var readers sync.WaitGroup
	for topic, reader := range c.readers {
		readers.Add(1)
		go func(topic string, reader *kafka.Reader) {
			defer readers.Done()
			c.consumeMessages(topic, reader)
		}(topic, reader)
	}
	// workers drain msgChan after every reader has returned
	go func() {
		readers.Wait()
		close(c.msgChan)
	}()

	c.l.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)),
		applogger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop stops reading, waits for in-flight messages and closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.l.Warn("kafka reader close failed", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.l.Warn("kafka dlq writer close failed", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.l.Info("kafka consumer stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	doneChan := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, context.DeadlineExceeded) {
				c.l.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		select {
		case c.msgChan <- &message{topic: topic, km: msg}:
			consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
		case <-ctx.Done():
			return
		}
	}
}

// messageWorker processes messages from the channel until it is closed.
func (c *Consumer) messageWorker() {
	defer c.wg.Done()

	for msg := range c.msgChan {
		handler, exists := c.handlers[msg.topic]
		if !exists {
			continue
		}
		start := time.Now()
		c.process(handler, msg)
		consumerHandleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}
}

func (c *Consumer) process(handler MessageHandler, msg *message) {
	defer func() {
		if r := recover(); r != nil {
			consumerMessagesTotal.WithLabelValues(msg.topic, "panic").Inc()
			c.l.Error("kafka handler panicked", applogger.String("topic", msg.topic), applogger.Any("panic", r))
		}
	}()

	pl := c.partitionLock(msg.topic, msg.km.Partition)
	pl.Lock()
	defer pl.Unlock()

	var err error
	attempts := 0
	for {
		attempts++
		err = c.handleOnce(handler, msg)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		sleep := backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)
		select {
		case <-time.After(sleep):
		case <-c.stopChan:
			return
		}
	}

	result := "ok"
	if err != nil {
		result = "error"
		c.l.Error("kafka message failed",
			applogger.String("topic", msg.topic),
			applogger.Int("partition", msg.km.Partition),
			applogger.Int64("offset", msg.km.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err),
		)
		if c.dlq != nil {
			if dlqErr := c.dlq.WriteMessages(context.Background(), kafka.Message{
				Topic:   c.cfg.DLQTopic,
				Key:     msg.km.Key,
				Value:   msg.km.Value,
				Time:    time.Now(),
				Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}, {Key: "error", Value: []byte(err.Error())}},
			}); dlqErr != nil {
				c.l.Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(dlqErr))
			}
		}
	}
	consumerMessagesTotal.WithLabelValues(msg.topic, result).Inc()

	// Commit on success or after DLQ so poison messages do not loop.
	if err == nil || c.dlq != nil {
		if reader := c.readers[msg.topic]; reader != nil {
			_ = c.commitWithRetry(reader, msg.km, 3)
		}
	}
}

func (c *Consumer) handleOnce(handler MessageHandler, msg *message) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.HandleTimeout)
	defer cancel()

	hctx, hmsg, data, err := c.hook.BeforeHandle(ctx, msg.topic, msg.km, msg.km.Value)
	if err != nil {
		return err
	}
	err = handler.Handle(hctx, data)
	c.hook.AfterHandle(hctx, msg.topic, hmsg, data, err)
	if err != nil {
		c.hook.OnError(hctx, msg.topic, hmsg, data, err)
	}
	return err
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	if max <= 0 {
		max = 1
	}
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Error("kafka commit failed", applogger.Int("attempts", max), applogger.Error(err))
	return err
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	c.lockMu.Lock()
	defer c.lockMu.Unlock()
	k := partitionKey{topic: topic, partition: partition}
	l, ok := c.partLocks[k]
	if !ok {
		l = &sync.Mutex{}
		c.partLocks[k] = l
	}
	return l
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max || exp <= 0 {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerMessagesTotal *prometheus.CounterVec
	consumerOnce          sync.Once
)

func initConsumerMetricsOnce() {
	consumerOnce.Do(func() {
		consumerQueueDepth = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "finresearch_kafka_consumer_queue_depth", Help: "Messages waiting in the consumer queue"},
			[]string{"topic"},
		)
		consumerHandleLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "finresearch_kafka_consumer_handle_seconds", Help: "Handling time per message", Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120}},
			[]string{"topic"},
		)
		consumerMessagesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "finresearch_kafka_consumer_messages_total", Help: "Messages handled by result"},
			[]string{"topic", "result"},
		)
		registerer.MustRegister(consumerQueueDepth, consumerHandleLatency, consumerMessagesTotal)
	})
}
