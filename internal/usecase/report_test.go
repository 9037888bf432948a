package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
)

func kinds(secs []models.DocumentSection) []models.SectionKind {
	out := make([]models.SectionKind, len(secs))
	for i, s := range secs {
		out[i] = s.Kind
	}
	return out
}

var wantOrder = []models.SectionKind{
	models.KindExecutive,
	models.KindAllocation,
	models.KindPrice,
	models.KindNews,
	models.KindSentiment,
	models.KindFooter,
}

func TestAssemble_OrderAndContent(t *testing.T) {
	c := NewResearchCoordinator(bullishPrice(), okText("news body"), okText("sentiment body"), quickConfig(time.Second))
	res := c.Research(context.Background(), "BTC")

	secs := NewReportAssembler("").Assemble(res)

	require.Equal(t, wantOrder, kinds(secs))
	assert.True(t, secs[0].Placeholder)
	assert.Contains(t, secs[0].Body, "3 of 3 sections")
	assert.Contains(t, secs[1].Body, "**Action Bias**: Accumulate")
	assert.Contains(t, secs[1].Body, "**Allocation Hint**: 100% of weekly DCA")
	assert.Contains(t, secs[1].Body, "**Invalidation Triggers**")
	assert.Equal(t, "price text", secs[2].Body)
	assert.Equal(t, "news body", secs[3].Body)
	assert.Equal(t, "sentiment body", secs[4].Body)
	assert.Contains(t, secs[5].Body, res.RunID)
	assert.Contains(t, secs[5].Body, DefaultDisclaimer)
}

func TestAssemble_FailuresBecomePlaceholders(t *testing.T) {
	res := &models.AggregateResult{
		RunID: "run-1",
		Token: "BTC",
		Sections: map[models.SectionName]models.JobResult[string]{
			models.SectionPrice:     models.TimedOut[string](),
			models.SectionNews:      models.Failed[string](models.ErrNoData, "no articles"),
			models.SectionSentiment: models.Succeeded("calm"),
		},
		GeneratedAt: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
	}

	secs := NewReportAssembler("custom disclaimer").Assemble(res)

	require.Equal(t, wantOrder, kinds(secs))
	assert.Equal(t, NoAllocationNote, secs[1].Body)
	assert.True(t, secs[1].Placeholder)
	assert.Equal(t, "Section unavailable (TimedOut): deadline exceeded", secs[2].Body)
	assert.True(t, secs[2].Placeholder)
	assert.Equal(t, "Section unavailable (NoData): no articles", secs[3].Body)
	assert.Equal(t, "calm", secs[4].Body)
	assert.False(t, secs[4].Placeholder)
	assert.True(t, strings.HasPrefix(secs[5].Body, "custom disclaimer"))
	assert.Contains(t, secs[5].Body, "Data gaps: price, news")
	assert.Contains(t, secs[5].Body, "2025-01-05T00:00:00Z")
}

func TestAssemble_MissingSectionIsNeverSilent(t *testing.T) {
	res := &models.AggregateResult{Token: "BTC", Sections: map[models.SectionName]models.JobResult[string]{}}

	secs := NewReportAssembler("").Assemble(res)

	require.Len(t, secs, 6)
	for _, s := range secs[2:5] {
		assert.True(t, s.Placeholder)
		assert.Equal(t, "Section unavailable (Internal)", s.Body)
	}
}

type sinkFunc func(context.Context, *models.Report) error

func (f sinkFunc) Name() string                                         { return "func" }
func (f sinkFunc) Deliver(ctx context.Context, r *models.Report) error { return f(ctx, r) }

func TestResearchUseCase_DeliveryFailureIsNonFatal(t *testing.T) {
	c := NewResearchCoordinator(bullishPrice(), okText("news"), okText("sentiment"), quickConfig(time.Second))
	var delivered *models.Report
	sink := sinkFunc(func(_ context.Context, r *models.Report) error {
		delivered = r
		return errors.New("disk full")
	})
	uc := NewResearchUseCase(c, NewReportAssembler(""), sink, nil)

	report := uc.Run(context.Background(), "BTC", true, nil)

	require.NotNil(t, report)
	assert.Same(t, report, delivered)
	assert.Len(t, report.Sections, 6)

	delivered = nil
	uc.Run(context.Background(), "BTC", false, nil)
	assert.Nil(t, delivered)
}

func TestResearchJob_Handle(t *testing.T) {
	c := NewResearchCoordinator(bullishPrice(), okText("news"), okText("sentiment"), quickConfig(time.Second))
	calls := 0
	sink := sinkFunc(func(context.Context, *models.Report) error { calls++; return nil })
	job := NewResearchJob(NewResearchUseCase(c, NewReportAssembler(""), sink, nil))

	out, err := job.Handle(context.Background(), json.RawMessage(`{"token":"BTC","deliver":true}`))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	resp, ok := out.(models.ResearchResponse)
	require.True(t, ok)
	assert.Equal(t, "BTC", resp.Token)
	require.NotNil(t, resp.Allocation)
	assert.Equal(t, "Accumulate", resp.Allocation.Bias)
	assert.Len(t, resp.Document, 6)

	_, err = job.Handle(context.Background(), json.RawMessage(`{"token":"ETH","deliver":false}`))
	require.NoError(t, err)
	_, err = job.Handle(context.Background(), json.RawMessage(`{"token":"SOL"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, err = job.Handle(context.Background(), map[string]interface{}{"token": " "})
	assert.Error(t, err)
	_, err = job.Handle(context.Background(), 42)
	assert.Error(t, err)
}

func TestKafkaResearchHandler_Handle(t *testing.T) {
	c := NewResearchCoordinator(bullishPrice(), okText("news"), okText("sentiment"), quickConfig(time.Second))
	calls := 0
	sink := sinkFunc(func(context.Context, *models.Report) error { calls++; return nil })
	h := NewKafkaResearchHandler("research.requests", NewResearchUseCase(c, NewReportAssembler(""), sink, nil), nil)

	assert.Equal(t, "research.requests", h.Topic())
	require.NoError(t, h.Handle(context.Background(), []byte(`{"token":"ETH"}`)))
	assert.Equal(t, 1, calls)
	assert.Error(t, h.Handle(context.Background(), []byte(`{`)))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"token":" "}`)))
}
