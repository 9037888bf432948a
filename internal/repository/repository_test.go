package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinResearch/internal/domain/models"
	pkgkafka "FinResearch/pkg/kafka"
	"FinResearch/pkg/queue"
)

func sampleReport() *models.Report {
	res := &models.AggregateResult{
		RunID: "run-1",
		Token: "BTC",
		Sections: map[models.SectionName]models.JobResult[string]{
			models.SectionPrice:     models.Succeeded("price text"),
			models.SectionNews:      models.TimedOut[string](),
			models.SectionSentiment: models.Succeeded("sentiment text"),
		},
		Allocation: &models.AllocationVerdict{
			Bias:              models.BiasLightAccumulate,
			BaseBias:          models.BiasAccumulate,
			AllocationPercent: 50,
			Downgraded:        true,
		},
		GeneratedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
	}
	return &models.Report{
		Result: res,
		Sections: []models.DocumentSection{
			{Kind: models.KindExecutive, Title: "Executive Summary", Body: "summary"},
			{Kind: models.KindNews, Title: "News Analysis", Body: "Section unavailable (timed_out)", Placeholder: true},
		},
	}
}

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

func (f *fakeExecer) PingContext(context.Context) error { return f.err }

func TestCHReportArchive_Init(t *testing.T) {
	db := &fakeExecer{}
	archive := NewCHReportArchive(db, "", nil)

	require.NoError(t, archive.Init(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS finresearch.research_runs")
}

func TestCHReportArchive_Deliver(t *testing.T) {
	db := &fakeExecer{}
	archive := NewCHReportArchive(db, "audit.runs", nil)

	require.NoError(t, archive.Deliver(context.Background(), sampleReport()))
	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.True(t, strings.HasPrefix(strings.TrimSpace(call.query), "INSERT INTO audit.runs"))
	require.Len(t, call.args, 13)
	assert.Equal(t, "run-1", call.args[0])
	assert.Equal(t, int64(1500), call.args[3])
	assert.Equal(t, "Light Accumulate", call.args[4])
	assert.Equal(t, "Accumulate", call.args[5])
	assert.Equal(t, uint8(50), call.args[6])
	assert.Equal(t, uint8(1), call.args[7])
	assert.Equal(t, "timed_out", call.args[9])
	assert.Equal(t, []string{"news"}, call.args[11])
	assert.Contains(t, call.args[12], "Executive Summary")
}

func TestCHReportArchive_DeliverWithoutAllocation(t *testing.T) {
	db := &fakeExecer{}
	report := sampleReport()
	report.Result.Allocation = nil

	require.NoError(t, NewCHReportArchive(db, "", nil).Deliver(context.Background(), report))
	assert.Equal(t, "", db.calls[0].args[4])
	assert.Equal(t, uint8(0), db.calls[0].args[6])
}

func TestCHReportArchive_Errors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection refused")}
	archive := NewCHReportArchive(db, "", nil)

	assert.ErrorContains(t, archive.Init(context.Background()), "init archive")
	assert.ErrorContains(t, archive.Deliver(context.Background(), sampleReport()), "archive report")
	assert.Error(t, archive.Health(context.Background()))
}

type published struct {
	topic string
	key   []byte
	value interface{}
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.msgs = append(f.msgs, published{topic: topic, key: key, value: value})
	return f.err
}

func (f *fakePublisher) PublishBatch(ctx context.Context, topic string, msgs []pkgkafka.Message) error {
	for _, m := range msgs {
		if err := f.Publish(ctx, topic, m.Key, m.Value); err != nil {
			return err
		}
	}
	return nil
}

func TestKafkaReportSink(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewKafkaReportSink(pub, "research.reports")

	require.NoError(t, sink.Deliver(context.Background(), sampleReport()))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "research.reports", pub.msgs[0].topic)
	assert.Equal(t, []byte("BTC"), pub.msgs[0].key)
	resp, ok := pub.msgs[0].value.(models.ResearchResponse)
	require.True(t, ok)
	assert.Equal(t, "run-1", resp.RunID)
	require.NotNil(t, resp.Allocation)
	assert.Equal(t, 50, resp.Allocation.AllocationPercent)

	pub.err = errors.New("broker down")
	assert.ErrorContains(t, sink.Deliver(context.Background(), sampleReport()), "publish report run-1")
}

func TestKafkaLogPublisher(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, NewKafkaLogPublisher(pub).PublishMessage(context.Background(), "logs", map[string]int{"count": 2}))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "logs", pub.msgs[0].topic)
	assert.Nil(t, pub.msgs[0].key)
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	assert.True(t, strings.HasPrefix(md, "# BTC Research Report\n"))
	assert.Contains(t, md, "run run-1")
	exec := strings.Index(md, "## Executive Summary")
	news := strings.Index(md, "## News Analysis")
	require.True(t, exec > 0 && news > exec)
	assert.Contains(t, md, "Section unavailable (timed_out)")
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	sink := NewFileSink(dir)
	report := sampleReport()

	require.NoError(t, sink.Deliver(context.Background(), report))
	path := sink.Path(report)
	assert.Equal(t, "btc_20260304_050607.md", filepath.Base(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderMarkdown(report), string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Deliver(ctx, report), context.Canceled)
}

type sinkStub struct {
	name  string
	err   error
	calls int
}

func (s *sinkStub) Name() string { return s.name }

func (s *sinkStub) Deliver(context.Context, *models.Report) error {
	s.calls++
	return s.err
}

type deliveryMetrics struct {
	deliveries map[string]error
}

func (m *deliveryMetrics) RecordRun(string, time.Duration)              {}
func (m *deliveryMetrics) RecordSection(string, string, string, float64) {}
func (m *deliveryMetrics) RecordAllocation(string, string, int)          {}
func (m *deliveryMetrics) RecordError(string)                            {}
func (m *deliveryMetrics) RecordDelivery(sink string, err error)         { m.deliveries[sink] = err }

func TestMultiSink_ContinuesPastFailures(t *testing.T) {
	boom := errors.New("boom")
	a := &sinkStub{name: "a", err: boom}
	b := &sinkStub{name: "b"}
	metrics := &deliveryMetrics{deliveries: map[string]error{}}
	multi := NewMultiSink(metrics, a, nil, b)

	assert.Equal(t, 2, multi.Len())
	err := multi.Deliver(context.Background(), sampleReport())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, boom, metrics.deliveries["a"])
	assert.NoError(t, metrics.deliveries["b"])

	assert.NoError(t, NewMultiSink(nil).Deliver(context.Background(), sampleReport()))
}

type fakeQueue struct {
	enqueued []interface{}
	states   map[string]*queue.JobState
}

func (f *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) (string, error) {
	f.enqueued = append(f.enqueued, payload)
	return msgType + "-1", nil
}

func (f *fakeQueue) Status(_ context.Context, id string) (*queue.JobState, error) {
	st, ok := f.states[id]
	if !ok {
		return nil, queue.ErrJobNotFound
	}
	return st, nil
}

func TestResearchQueue(t *testing.T) {
	q := &fakeQueue{states: map[string]*queue.JobState{
		"job-1": {ID: "job-1", State: queue.StateDone, Attempts: 1, Result: json.RawMessage(`{"token":"BTC"}`)},
	}}
	rq := NewResearchQueue(q, "research.run")

	id, err := rq.EnqueueResearch(context.Background(), models.ResearchJobRequest{Token: "BTC"})
	require.NoError(t, err)
	assert.Equal(t, "research.run-1", id)
	require.Len(t, q.enqueued, 1)

	job, err := rq.ResearchStatus(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "done", job.State)
	assert.JSONEq(t, `{"token":"BTC"}`, string(job.Result))

	_, err = rq.ResearchStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}
