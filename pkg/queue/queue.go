package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrJobNotFound is returned by Status for unknown or expired ids.
var ErrJobNotFound = errors.New("queue: job not found")

// Publisher enqueues messages and reports their progress.
type Publisher interface {
	Enqueue(ctx context.Context, msgType string, payload interface{}) (string, error)
	Status(ctx context.Context, id string) (*JobState, error)
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
	JobTimeout time.Duration // upper bound for one Handle call
	StatusTTL  time.Duration // how long job states are kept
}

// Message represents a message in the queue
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
}

// Job lifecycle states.
const (
	StateQueued   = "queued"
	StateRunning  = "running"
	StateRetrying = "retrying"
	StateDone     = "done"
	StateDead     = "dead"
)

// JobState is the externally visible progress of one message.
type JobState struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	State     string          `json:"state"`
	Attempts  int             `json:"attempts"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ParsePayload decodes a queue payload into T.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var result T

	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case []byte:
		if err := json.Unmarshal(p, &result); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		return &result, nil
	case map[string]interface{}:
		jsonData, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal map to json: %w", err)
		}
		if err := json.Unmarshal(jsonData, &result); err != nil {
			return nil, fmt.Errorf("unmarshal json to struct: %w", err)
		}
		return &result, nil
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}
}
