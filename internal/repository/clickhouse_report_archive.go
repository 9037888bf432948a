package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	applogger "FinResearch/pkg/logger"
)

const DefaultArchiveTable = "finresearch.research_runs"

// Execer is the subset of *sql.DB the archive needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PingContext(ctx context.Context) error
}

// CHReportArchive writes one audit row per research run to ClickHouse.
type CHReportArchive struct {
	db    Execer
	table string
	l     *applogger.Logger
}

func NewCHReportArchive(db Execer, table string, l *applogger.Logger) *CHReportArchive {
	if table == "" {
		table = DefaultArchiveTable
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHReportArchive{db: db, table: table, l: l}
}

func (s *CHReportArchive) Name() string { return "clickhouse" }

// Init creates the archive table when missing.
func (s *CHReportArchive) Init(ctx context.Context) error {
	const qtpl = `
        CREATE TABLE IF NOT EXISTS %s (
            run_id          String,
            token           LowCardinality(String),
            generated_at    DateTime64(3, 'UTC'),
            duration_ms     Int64,
            bias            LowCardinality(String),
            base_bias       LowCardinality(String),
            allocation_pct  UInt8,
            downgraded      UInt8,
            price_status    LowCardinality(String),
            news_status     LowCardinality(String),
            sentiment_status LowCardinality(String),
            failed_sections Array(String),
            document        String
        )
        ENGINE = MergeTree
        PARTITION BY toYYYYMM(generated_at)
        ORDER BY (token, generated_at)
    `
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(qtpl, s.table)); err != nil {
		s.l.Error("clickhouse archive init error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return fmt.Errorf("init archive: %w", err)
	}
	return nil
}

func (s *CHReportArchive) Deliver(ctx context.Context, report *models.Report) error {
	start := time.Now()
	res := report.Result

	bias, baseBias := "", ""
	pct, downgraded := 0, uint8(0)
	if v := res.Allocation; v != nil {
		bias, baseBias = v.Bias.String(), v.BaseBias.String()
		pct = v.AllocationPercent
		if v.Downgraded {
			downgraded = 1
		}
	}
	failed := make([]string, 0, len(models.ResearchSections))
	for _, name := range res.Failed() {
		failed = append(failed, string(name))
	}
	doc, err := json.Marshal(models.NewResearchResponse(res, report.Sections).Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	q := fmt.Sprintf(`INSERT INTO %s (run_id, token, generated_at, duration_ms, bias, base_bias, allocation_pct, downgraded,
        price_status, news_status, sentiment_status, failed_sections, document) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		res.RunID,
		strings.ToUpper(res.Token),
		res.GeneratedAt.UTC(),
		res.Duration.Milliseconds(),
		bias,
		baseBias,
		uint8(pct),
		downgraded,
		res.Sections[models.SectionPrice].Status.String(),
		res.Sections[models.SectionNews].Status.String(),
		res.Sections[models.SectionSentiment].Status.String(),
		failed,
		string(doc),
	)
	if err != nil {
		s.l.Error("clickhouse archive insert error",
			applogger.String("table", s.table),
			applogger.String("run_id", res.RunID),
			applogger.Error(err),
		)
		return fmt.Errorf("archive report: %w", err)
	}
	s.l.Debug("clickhouse archive insert ok",
		applogger.String("run_id", res.RunID),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func (s *CHReportArchive) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var _ domrepo.ReportArchive = (*CHReportArchive)(nil)
