package repository

import (
	"context"
	"errors"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	"FinResearch/pkg/queue"
)

// ResearchQueue adapts the Redis job queue to research requests.
type ResearchQueue struct {
	q       queue.Publisher
	jobType string
}

func NewResearchQueue(q queue.Publisher, jobType string) *ResearchQueue {
	return &ResearchQueue{q: q, jobType: jobType}
}

func (r *ResearchQueue) EnqueueResearch(ctx context.Context, req models.ResearchJobRequest) (string, error) {
	return r.q.Enqueue(ctx, r.jobType, req)
}

func (r *ResearchQueue) ResearchStatus(ctx context.Context, id string) (*models.QueuedJob, error) {
	st, err := r.q.Status(ctx, id)
	if errors.Is(err, queue.ErrJobNotFound) {
		return nil, models.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &models.QueuedJob{
		ID:        st.ID,
		State:     st.State,
		Attempts:  st.Attempts,
		Error:     st.Error,
		Result:    st.Result,
		UpdatedAt: st.UpdatedAt,
	}, nil
}

var _ domrepo.JobQueue = (*ResearchQueue)(nil)
