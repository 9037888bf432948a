package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"FinResearch/pkg/logger"
)

// QueueMode defines the operation mode of the queue.
type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

// RedisQueue is a Redis list backed job queue with delayed retries (ZSET),
// a dead letter list and per-message state records.
type RedisQueue struct {
	logger    *logger.Logger
	config    *QueueConfig
	client    *redis.Client
	jobs      map[string]Job
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
	stopCh    chan struct{}
	mode      QueueMode
	ctx       context.Context
	cancel    context.CancelFunc
	keyPrefix string
	now       func() time.Time
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// NewRedisQueue creates a new Redis queue.
func NewRedisQueue(lgr *logger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 2 * time.Minute
	}
	if config.StatusTTL <= 0 {
		config.StatusTTL = 24 * time.Hour
	}
	if lgr == nil {
		lgr = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	rq := &RedisQueue{
		logger:    lgr,
		config:    config,
		client:    client,
		jobs:      make(map[string]Job),
		stopCh:    make(chan struct{}),
		mode:      mode,
		ctx:       ctx,
		cancel:    cancel,
		keyPrefix: "finresearch:queue",
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(rq)
	}

	return rq
}

// NewRedisPublisher creates a publisher-only queue.
func NewRedisPublisher(lgr *logger.Logger, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	return NewRedisQueue(lgr, &QueueConfig{}, client, ModeProducerOnly, opts...)
}

// NewRedisConsumer creates a consumer-only queue.
func NewRedisConsumer(lgr *logger.Logger, config *QueueConfig, client *redis.Client, jobs []Job, opts ...RedisQueueOption) *RedisQueue {
	q := NewRedisQueue(lgr, config, client, ModeConsumerOnly, opts...)
	q.RegisterJobs(jobs)
	return q
}

// RegisterJobs registers multiple jobs.
func (r *RedisQueue) RegisterJobs(jobs []Job) {
	for _, job := range jobs {
		r.RegisterJob(job)
	}
}

// RegisterJob registers a single job.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.logger.Warn("job registration ignored in producer-only mode",
			logger.String("job", job.Name()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.Type()]; exists {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}

	r.jobs[job.Type()] = job
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start verifies the connection and, in consumer modes, starts the workers
// and the retry processor.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning {
		return fmt.Errorf("queue already running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	r.isRunning = true

	if r.mode == ModeProducerOnly {
		r.logger.Info("redis publisher started", logger.String("addr", r.client.Options().Addr))
		return nil
	}

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.wg.Add(1)
	go r.retryProcessor()

	r.logger.Info("redis queue started",
		logger.Int("workers", r.config.Workers),
		logger.String("addr", r.client.Options().Addr),
		logger.String("mode", r.getModeString()))
	return nil
}

// Stop gracefully stops the queue.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.cancel()
	close(r.stopCh)
	r.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// Enqueue adds a message to the queue and returns its id.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error) {
	r.mu.RLock()
	running := r.isRunning
	_, registered := r.jobs[msgType]
	r.mu.RUnlock()

	if !running {
		return "", fmt.Errorf("queue not running")
	}
	if r.mode != ModeProducerOnly && !registered {
		return "", fmt.Errorf("no job registered for type: %s", msgType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: r.now(),
	}
	msgData, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	state, err := json.Marshal(JobState{ID: msg.ID, Type: msgType, State: StateQueued, UpdatedAt: msg.Timestamp})
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.getStatusKey(msg.ID), state, r.config.StatusTTL)
	pipe.LPush(ctx, r.getQueueKey(), msgData)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return msg.ID, nil
}

// Status returns the last recorded state of a message.
func (r *RedisQueue) Status(ctx context.Context, id string) (*JobState, error) {
	data, err := r.client.Get(ctx, r.getStatusKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	var st JobState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("queue worker started", logger.Int("worker_id", id))

	queueKey := r.getQueueKey()
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		default:
			r.processNextMessage(queueKey)
		}
	}
}

func (r *RedisQueue) processNextMessage(queueKey string) {
	result, err := r.client.BRPop(r.ctx, time.Second, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.logger.Error("brpop error", logger.Error(err))
		select {
		case <-time.After(time.Second):
		case <-r.ctx.Done():
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		return
	}
	r.processMessage(msg)
}

func (r *RedisQueue) processMessage(msg Message) {
	r.mu.RLock()
	job, exists := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !exists {
		r.logger.Error("no job found",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID))
		r.moveToDeadLetterQueue(msg, fmt.Errorf("no job registered for type %s", msg.Type))
		return
	}

	r.setState(msg, StateRunning, nil, nil)

	ctx, cancel := context.WithTimeout(r.ctx, r.config.JobTimeout)
	start := time.Now()
	result, err := job.Handle(ctx, msg.Payload)
	cancel()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.Canceled) && r.ctx.Err() != nil {
			r.logger.Warn("message cancelled by shutdown",
				logger.String("id", msg.ID),
				logger.String("job", job.Name()),
				logger.Int64("elapsed_ms", elapsed.Milliseconds()))
			r.scheduleRetry(msg, r.now())
			return
		}
		r.handleProcessingError(msg, job, err)
		return
	}

	var raw json.RawMessage
	if result != nil {
		if raw, err = json.Marshal(result); err != nil {
			r.logger.Warn("job result not encodable", logger.String("id", msg.ID), logger.Error(err))
			raw = nil
		}
	}
	r.setState(msg, StateDone, nil, raw)
	r.logger.Info("job completed",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int64("elapsed_ms", elapsed.Milliseconds()))
}

func (r *RedisQueue) handleProcessingError(msg Message, job Job, err error) {
	r.logger.Error("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts+1),
		logger.Error(err))

	if msg.Attempts < r.config.RetryLimit {
		msg.Attempts++
		retryTime := r.now().Add(r.config.RetryDelay)
		r.scheduleRetry(msg, retryTime)
		r.setState(msg, StateRetrying, err, nil)
		return
	}
	r.logger.Error("max retries reached",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()))
	r.moveToDeadLetterQueue(msg, err)
}

func (r *RedisQueue) setState(msg Message, state string, cause error, result json.RawMessage) {
	st := JobState{
		ID:        msg.ID,
		Type:      msg.Type,
		State:     state,
		Attempts:  msg.Attempts,
		Result:    result,
		UpdatedAt: r.now(),
	}
	if cause != nil {
		st.Error = cause.Error()
	}
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := r.client.Set(context.Background(), r.getStatusKey(msg.ID), data, r.config.StatusTTL).Err(); err != nil {
		r.logger.Warn("set job state", logger.String("id", msg.ID), logger.Error(err))
	}
}

func (r *RedisQueue) scheduleRetry(msg Message, retryTime time.Time) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal retry", logger.Error(err))
		return
	}

	err = r.client.ZAdd(context.Background(), r.getRetryKey(), redis.Z{
		Score:  float64(retryTime.Unix()),
		Member: msgData,
	}).Err()
	if err != nil {
		r.logger.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) moveToDeadLetterQueue(msg Message, cause error) {
	msgData, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal dlq", logger.Error(err))
		return
	}
	if err := r.client.LPush(context.Background(), r.getDeadLetterKey(), msgData).Err(); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
	r.setState(msg, StateDead, cause, nil)
}

func (r *RedisQueue) retryProcessor() {
	defer r.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.processRetryMessages()
		}
	}
}

func (r *RedisQueue) processRetryMessages() {
	now := float64(r.now().Unix())

	result, err := r.client.ZRangeByScore(r.ctx, r.getRetryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatFloat(now, 'f', 0, 64),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("fetch retry messages", logger.Error(err))
		}
		return
	}

	for _, msgData := range result {
		if r.ctx.Err() != nil {
			return
		}
		pipe := r.client.TxPipeline()
		pipe.ZRem(r.ctx, r.getRetryKey(), msgData)
		pipe.LPush(r.ctx, r.getQueueKey(), msgData)
		if _, err := pipe.Exec(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("move retry to queue", logger.Error(err))
		}
	}
}

func (r *RedisQueue) getModeString() string {
	switch r.mode {
	case ModeProducerOnly:
		return "producer-only"
	case ModeConsumerOnly:
		return "consumer-only"
	default:
		return "producer-consumer"
	}
}

func (r *RedisQueue) getQueueKey() string {
	return r.keyPrefix + ":messages"
}

func (r *RedisQueue) getRetryKey() string {
	return r.keyPrefix + ":retry"
}

func (r *RedisQueue) getDeadLetterKey() string {
	return r.keyPrefix + ":dlq"
}

func (r *RedisQueue) getStatusKey(id string) string {
	return r.keyPrefix + ":status:" + id
}

var _ Publisher = (*RedisQueue)(nil)
