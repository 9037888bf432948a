package models

// JobStatus is the tag of a JobResult. The zero value is not a success.
type JobStatus int

const (
	JobSucceeded JobStatus = iota + 1
	JobFailed
	JobTimedOut
)

func (s JobStatus) String() string {
	switch s {
	case JobSucceeded:
		return "success"
	case JobFailed:
		return "failure"
	case JobTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// JobResult is the outcome of one fan-out job.
// Value is meaningful only when Status is JobSucceeded.
type JobResult[T any] struct {
	Status  JobStatus
	Value   T
	Kind    ErrorKind
	Message string
}

func Succeeded[T any](v T) JobResult[T] {
	return JobResult[T]{Status: JobSucceeded, Value: v}
}

func Failed[T any](kind ErrorKind, message string) JobResult[T] {
	return JobResult[T]{Status: JobFailed, Kind: kind, Message: message}
}

func TimedOut[T any]() JobResult[T] {
	return JobResult[T]{Status: JobTimedOut, Kind: ErrTimedOut, Message: "deadline exceeded"}
}

func (r JobResult[T]) OK() bool { return r.Status == JobSucceeded }

// MapResult converts the value of a successful result, keeping failure info otherwise.
func MapResult[T, U any](r JobResult[T], fn func(T) U) JobResult[U] {
	if r.Status == JobSucceeded {
		return Succeeded(fn(r.Value))
	}
	return JobResult[U]{Status: r.Status, Kind: r.Kind, Message: r.Message}
}
