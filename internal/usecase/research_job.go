package usecase

import (
	"context"
	"fmt"
	"strings"

	"FinResearch/internal/domain/models"
	"FinResearch/pkg/queue"
)

const ResearchJobType = "research.run"

// ResearchJob processes queued research requests.
type ResearchJob struct {
	uc *ResearchUseCase
}

func NewResearchJob(uc *ResearchUseCase) *ResearchJob {
	return &ResearchJob{uc: uc}
}

func (j *ResearchJob) Name() string { return "research-runner" }

func (j *ResearchJob) Type() string { return ResearchJobType }

// Handle runs the research and returns the response stored with the job
// state. Section failures are part of the report and do not trigger a queue
// retry; only an unreadable payload does.
func (j *ResearchJob) Handle(ctx context.Context, payload interface{}) (interface{}, error) {
	req, err := queue.ParsePayload[models.ResearchJobRequest](payload)
	if err != nil {
		return nil, fmt.Errorf("research job payload: %w", err)
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, fmt.Errorf("research job payload: token required")
	}
	report := j.uc.Run(ctx, token, req.ShouldDeliver(), nil)
	return models.NewResearchResponse(report.Result, report.Sections), nil
}

var _ queue.Job = (*ResearchJob)(nil)
