package models

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrJobNotFound = errors.New("research job not found")

// QueuedJob is the progress of a research request accepted for background processing.
type QueuedJob struct {
	ID        string          `json:"id"`
	State     string          `json:"state"`
	Attempts  int             `json:"attempts"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}
