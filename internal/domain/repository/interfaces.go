package repository

import (
	"context"
	"time"

	"FinResearch/internal/domain/models"
)

// ReportSink receives finished reports. Delivery failures are reported to the
// caller, who logs them; they never affect the research result.
type ReportSink interface {
	Name() string
	Deliver(ctx context.Context, report *models.Report) error
}

// ReportArchive stores an audit row per run. Rows are write-only: no run reads
// a previous run's output.
type ReportArchive interface {
	ReportSink
	Init(ctx context.Context) error
	Health(ctx context.Context) error
}

// JobQueue accepts research requests for background processing.
// ResearchStatus returns models.ErrJobNotFound for unknown ids.
type JobQueue interface {
	EnqueueResearch(ctx context.Context, req models.ResearchJobRequest) (string, error)
	ResearchStatus(ctx context.Context, id string) (*models.QueuedJob, error)
}

type Metrics interface {
	RecordRun(token string, duration time.Duration)
	RecordSection(section string, status string, kind string, seconds float64)
	RecordAllocation(token string, bias string, percent int)
	RecordDelivery(sink string, err error)
	RecordError(kind string)
}
