package queue

import "context"

// Job defines a queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the payload. A non-nil result is stored with the job
	// state for later lookup.
	Handle(ctx context.Context, payload interface{}) (interface{}, error)
}
