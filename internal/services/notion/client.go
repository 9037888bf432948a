package notion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	pkghttp "FinResearch/pkg/http"
	applogger "FinResearch/pkg/logger"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"

	// Notion rejects pages with more children or longer text runs.
	maxBlocks   = 100
	maxTextRune = 2000
)

type Config struct {
	BaseURL    string
	APIKey     string
	DatabaseID string
	Timeout    time.Duration
}

// Sink creates one Notion database page per research report.
type Sink struct {
	cfg    Config
	client *pkghttp.Client
	l      *applogger.Logger
}

func New(cfg Config, l *applogger.Logger, opts ...pkghttp.ClientOption) (*Sink, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("notion api key required")
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("notion database id required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if l == nil {
		l = applogger.NewNop()
	}
	opts = append([]pkghttp.ClientOption{pkghttp.WithTimeout(cfg.Timeout)}, opts...)
	return &Sink{cfg: cfg, client: pkghttp.NewClient(opts...), l: l}, nil
}

func (s *Sink) Name() string { return "notion" }

type pageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (s *Sink) Deliver(ctx context.Context, report *models.Report) error {
	var page pageResponse
	err := s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    s.cfg.BaseURL + "/pages",
		Headers: map[string]string{
			"Authorization":  "Bearer " + s.cfg.APIKey,
			"Notion-Version": APIVersion,
			"Content-Type":   "application/json",
		},
		Body: s.pagePayload(report),
	}, &page)
	if err != nil {
		return fmt.Errorf("notion create page: %w", err)
	}
	s.l.Info("notion page created",
		applogger.String("run_id", report.Result.RunID),
		applogger.String("page_id", page.ID),
		applogger.String("url", page.URL),
	)
	return nil
}

func (s *Sink) pagePayload(report *models.Report) map[string]interface{} {
	res := report.Result
	token := strings.ToUpper(res.Token)
	title := fmt.Sprintf("%s Research Report - %s", token, res.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	return map[string]interface{}{
		"parent": map[string]string{"database_id": s.cfg.DatabaseID},
		"properties": map[string]interface{}{
			"Name":       map[string]interface{}{"title": richText(title)},
			"Token":      selectProp(token),
			"Confidence": selectProp(Confidence(res)),
			"Sentiment":  selectProp(OverallSentiment(res)),
			"Date":       map[string]interface{}{"date": map[string]string{"start": res.GeneratedAt.UTC().Format(time.RFC3339)}},
		},
		"children": Blocks(report.Sections),
	}
}

// Confidence grades a run by how many research sections produced text.
func Confidence(res *models.AggregateResult) string {
	switch len(models.ResearchSections) - len(res.Failed()) {
	case len(models.ResearchSections):
		return "High"
	case len(models.ResearchSections) - 1:
		return "Medium"
	default:
		return "Low"
	}
}

// OverallSentiment prefers the sentiment section tag and falls back to news.
func OverallSentiment(res *models.AggregateResult) string {
	for _, name := range []models.SectionName{models.SectionSentiment, models.SectionNews} {
		switch res.Sentiment[name] {
		case models.SentimentBullish:
			return "Bullish"
		case models.SentimentBearish:
			return "Bearish"
		case models.SentimentNeutral, models.SentimentMixed:
			return "Neutral"
		}
	}
	return "Neutral"
}

// Blocks converts document sections into Notion blocks: a heading per
// section, bullets for "- " lines, paragraphs for everything else.
func Blocks(sections []models.DocumentSection) []map[string]interface{} {
	var out []map[string]interface{}
	for _, sec := range sections {
		out = append(out, block("heading_2", sec.Title))
		for _, line := range strings.Split(sec.Body, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case strings.HasPrefix(line, "### "):
				out = append(out, block("heading_3", strings.TrimPrefix(line, "### ")))
			case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
				out = append(out, block("bulleted_list_item", line[2:]))
			default:
				out = append(out, block("paragraph", line))
			}
		}
	}
	if len(out) > maxBlocks {
		out = out[:maxBlocks]
	}
	return out
}

func block(kind, text string) map[string]interface{} {
	return map[string]interface{}{
		"object": "block",
		"type":   kind,
		kind:     map[string]interface{}{"rich_text": richText(text)},
	}
}

func richText(text string) []map[string]interface{} {
	if r := []rune(text); len(r) > maxTextRune {
		text = string(r[:maxTextRune])
	}
	return []map[string]interface{}{
		{"type": "text", "text": map[string]string{"content": text}},
	}
}

func selectProp(name string) map[string]interface{} {
	return map[string]interface{}{"select": map[string]string{"name": name}}
}

var _ domrepo.ReportSink = (*Sink)(nil)
