package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	"FinResearch/internal/domain/service"
	"FinResearch/internal/service/runner"
	"FinResearch/internal/services/allocation"
	applogger "FinResearch/pkg/logger"
)

// AuxPolicy decides when news and sentiment count as available for the allocation downgrade.
type AuxPolicy string

const (
	// AuxAny treats auxiliary data as available when either section succeeded.
	AuxAny AuxPolicy = "any"
	// AuxAll requires both sections.
	AuxAll AuxPolicy = "all"
)

type ResearchConfig struct {
	PriceTimeout     time.Duration
	NewsTimeout      time.Duration
	SentimentTimeout time.Duration
	AuxPolicy        AuxPolicy
}

func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		PriceTimeout:     runner.DefaultTimeout,
		NewsTimeout:      runner.DefaultTimeout,
		SentimentTimeout: runner.DefaultTimeout,
		AuxPolicy:        AuxAny,
	}
}

// Progress stages reported to observers.
const (
	StageDispatched = "dispatched"
	StageCompleted  = "completed"
	StageFailed     = "failed"
	StageTimedOut   = "timed_out"
)

// ProgressEvent describes one section changing state during a run.
type ProgressEvent struct {
	RunID   string
	Token   string
	Section models.SectionName
	Stage   string
	Kind    models.ErrorKind
	Message string
	Elapsed time.Duration
}

// Observer receives progress events from the goroutine running Research.
type Observer func(ProgressEvent)

// sectionOutput is the common value type of the three research jobs.
type sectionOutput struct {
	text      string
	sentiment models.Sentiment
	price     *models.PriceReport
}

// ResearchCoordinator fans out the price, news and sentiment jobs and derives
// the allocation verdict from the price snapshot.
type ResearchCoordinator struct {
	price     service.PriceProvider
	news      service.NewsProvider
	sentiment service.SentimentProvider
	cfg       ResearchConfig
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
	newID     func() string
}

type CoordinatorOption func(*ResearchCoordinator)

func WithMetrics(m domrepo.Metrics) CoordinatorOption {
	return func(c *ResearchCoordinator) { c.metrics = m }
}

func WithLogger(l *applogger.Logger) CoordinatorOption {
	return func(c *ResearchCoordinator) { c.l = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *ResearchCoordinator) { c.now = now }
}

func NewResearchCoordinator(price service.PriceProvider, news service.NewsProvider, sentiment service.SentimentProvider, cfg ResearchConfig, opts ...CoordinatorOption) *ResearchCoordinator {
	def := DefaultResearchConfig()
	if cfg.PriceTimeout <= 0 {
		cfg.PriceTimeout = def.PriceTimeout
	}
	if cfg.NewsTimeout <= 0 {
		cfg.NewsTimeout = def.NewsTimeout
	}
	if cfg.SentimentTimeout <= 0 {
		cfg.SentimentTimeout = def.SentimentTimeout
	}
	if cfg.AuxPolicy != AuxAll {
		cfg.AuxPolicy = AuxAny
	}
	c := &ResearchCoordinator{
		price:     price,
		news:      news,
		sentiment: sentiment,
		cfg:       cfg,
		l:         applogger.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Research runs one research pass. It always returns a result with exactly
// one entry per section; failures are recorded, never returned.
func (c *ResearchCoordinator) Research(ctx context.Context, token string) *models.AggregateResult {
	return c.ResearchWithObserver(ctx, token, nil)
}

func (c *ResearchCoordinator) ResearchWithObserver(ctx context.Context, token string, obs Observer) *models.AggregateResult {
	start := c.now()
	token = strings.TrimSpace(token)
	res := &models.AggregateResult{
		RunID:     c.newID(),
		Token:     token,
		Sections:  make(map[models.SectionName]models.JobResult[string], len(models.ResearchSections)),
		Sentiment: map[models.SectionName]models.Sentiment{},
	}
	if obs == nil {
		obs = func(ProgressEvent) {}
	}

	if token == "" {
		for _, name := range models.ResearchSections {
			res.Sections[name] = models.Failed[string](models.ErrNotFound, "token is empty")
		}
		res.GeneratedAt = c.now()
		return res
	}

	c.l.Info("research run started",
		applogger.String("run_id", res.RunID),
		applogger.String("token", token),
	)

	jobs := c.jobs(token)
	results := runner.RunAll(ctx, jobs, runner.WithHooks(runner.Hooks{
		OnStart: func(i int, _ string) {
			obs(ProgressEvent{RunID: res.RunID, Token: token, Section: models.ResearchSections[i], Stage: StageDispatched})
		},
		OnDone: func(o runner.Outcome) {
			name := models.ResearchSections[o.Index]
			c.recordSection(res.RunID, name, o)
			obs(ProgressEvent{
				RunID:   res.RunID,
				Token:   token,
				Section: name,
				Stage:   stageOf(o.Status),
				Kind:    o.Kind,
				Message: o.Message,
				Elapsed: o.Elapsed,
			})
		},
	}))

	for i, name := range models.ResearchSections {
		r := results[i]
		res.Sections[name] = models.MapResult(r, func(o sectionOutput) string { return o.text })
		if r.OK() && r.Value.sentiment != "" {
			res.Sentiment[name] = r.Value.sentiment
		}
	}

	if price := results[0]; price.OK() && price.Value.price != nil {
		c.allocate(res, price.Value.price.Snapshot, c.auxAvailable(results[1], results[2]))
	}

	res.GeneratedAt = c.now()
	res.Duration = res.GeneratedAt.Sub(start)

	if c.metrics != nil {
		c.metrics.RecordRun(token, res.Duration)
		if res.Allocation != nil {
			c.metrics.RecordAllocation(token, res.Allocation.Bias.String(), res.Allocation.AllocationPercent)
		}
	}
	fields := []applogger.Field{
		applogger.String("run_id", res.RunID),
		applogger.String("token", token),
		applogger.Duration("duration_ms", res.Duration),
		applogger.Int("failed_sections", len(res.Failed())),
	}
	if res.Allocation != nil {
		fields = append(fields,
			applogger.String("bias", res.Allocation.Bias.String()),
			applogger.Bool("downgraded", res.Allocation.Downgraded),
		)
	}
	c.l.Info("research run finished", fields...)
	return res
}

func (c *ResearchCoordinator) jobs(token string) []runner.Job[sectionOutput] {
	return []runner.Job[sectionOutput]{
		{
			Name:    string(models.SectionPrice),
			Timeout: c.cfg.PriceTimeout,
			Run: func(ctx context.Context) (sectionOutput, error) {
				rep, err := c.price.FetchPriceSignal(ctx, token)
				if err != nil {
					return sectionOutput{}, err
				}
				return sectionOutput{text: rep.Text, price: &rep}, nil
			},
		},
		{
			Name:    string(models.SectionNews),
			Timeout: c.cfg.NewsTimeout,
			Run: func(ctx context.Context) (sectionOutput, error) {
				return textJob(c.news.FetchNewsSummary(ctx, token))
			},
		},
		{
			Name:    string(models.SectionSentiment),
			Timeout: c.cfg.SentimentTimeout,
			Run: func(ctx context.Context) (sectionOutput, error) {
				return textJob(c.sentiment.FetchSentimentSummary(ctx, token))
			},
		},
	}
}

var errEmptySummary = errors.New("summary is empty")

func textJob(rep models.TextReport, err error) (sectionOutput, error) {
	if err != nil {
		return sectionOutput{}, err
	}
	if strings.TrimSpace(rep.Text) == "" {
		return sectionOutput{}, models.NewProviderError(models.ErrNoData, "summary", errEmptySummary)
	}
	return sectionOutput{text: rep.Text, sentiment: rep.Sentiment}, nil
}

func (c *ResearchCoordinator) auxAvailable(news, sentiment models.JobResult[sectionOutput]) bool {
	if c.cfg.AuxPolicy == AuxAll {
		return news.OK() && sentiment.OK()
	}
	return news.OK() || sentiment.OK()
}

// allocate evaluates the snapshot. A panic here marks the price section failed
// instead of escaping Research.
func (c *ResearchCoordinator) allocate(res *models.AggregateResult, snap models.SignalSnapshot, aux bool) {
	defer func() {
		if rec := recover(); rec != nil {
			res.Allocation = nil
			res.Snapshot = nil
			res.Sections[models.SectionPrice] = models.Failed[string](models.ErrInternal, fmt.Sprintf("allocation: %v", rec))
			c.l.Error("allocation evaluation panicked",
				applogger.String("run_id", res.RunID),
				applogger.Any("panic", rec),
			)
			if c.metrics != nil {
				c.metrics.RecordError("allocation_panic")
			}
		}
	}()
	verdict := allocation.Evaluate(snap, aux)
	res.Snapshot = &snap
	res.Allocation = &verdict
}

func (c *ResearchCoordinator) recordSection(runID string, name models.SectionName, o runner.Outcome) {
	if c.metrics != nil {
		c.metrics.RecordSection(string(name), o.Status.String(), string(o.Kind), o.Elapsed.Seconds())
	}
	if o.Status == models.JobSucceeded {
		c.l.Debug("research section completed",
			applogger.String("run_id", runID),
			applogger.String("section", string(name)),
			applogger.Duration("elapsed_ms", o.Elapsed),
		)
		return
	}
	c.l.Warn("research section unavailable",
		applogger.String("run_id", runID),
		applogger.String("section", string(name)),
		applogger.String("kind", string(o.Kind)),
		applogger.String("message", o.Message),
		applogger.Duration("elapsed_ms", o.Elapsed),
	)
}

func stageOf(s models.JobStatus) string {
	switch s {
	case models.JobSucceeded:
		return StageCompleted
	case models.JobTimedOut:
		return StageTimedOut
	default:
		return StageFailed
	}
}
