package analyst

import (
	"context"
	"fmt"
	"strings"

	"FinResearch/internal/domain/models"
	domsvc "FinResearch/internal/domain/service"
	pkghttp "FinResearch/pkg/http"
)

// Prompt names looked up in Config.Prompts.
const (
	PromptNews      = "news_aggregator"
	PromptSentiment = "social_sentinel"
)

const (
	defaultNewsPrompt      = "You are a cryptocurrency news analyst."
	defaultSentimentPrompt = "You are a cryptocurrency sentiment analyst."
)

type summaryRequest struct {
	Token        string `json:"token"`
	Instructions string `json:"instructions,omitempty"`
}

type summaryResponse struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Sources   []string `json:"sources"`
}

// summarize posts one summary request and normalises the reply.
// An empty summary is reported as NoData.
func summarize(ctx context.Context, base *HTTPServiceBase, op, path, token, prompt string) (models.TextReport, error) {
	var resp summaryResponse
	req := summaryRequest{Token: strings.TrimSpace(token), Instructions: prompt}
	if err := base.PostJSONWithRetry(ctx, path, req, &resp); err != nil {
		return models.TextReport{}, classify(op, err)
	}
	text := strings.TrimSpace(resp.Summary)
	if text == "" {
		return models.TextReport{}, models.NewProviderError(models.ErrNoData, op, fmt.Errorf("empty summary for %s", req.Token))
	}
	return models.TextReport{
		Text:      text,
		Sentiment: models.ParseSentiment(resp.Sentiment),
		Sources:   resp.Sources,
	}, nil
}

func promptOr(prompts map[string]string, name, fallback string) string {
	if p := strings.TrimSpace(prompts[name]); p != "" {
		return p
	}
	return fallback
}

// HTTPNewsProvider fetches news summaries from the sidecar.
type HTTPNewsProvider struct {
	base   *HTTPServiceBase
	prompt string
}

func NewHTTPNewsProvider(cfg Config, opts ...pkghttp.ClientOption) *HTTPNewsProvider {
	return &HTTPNewsProvider{
		base:   NewHTTPServiceBase(cfg, opts...),
		prompt: promptOr(cfg.Prompts, PromptNews, defaultNewsPrompt),
	}
}

func (p *HTTPNewsProvider) FetchNewsSummary(ctx context.Context, token string) (models.TextReport, error) {
	return summarize(ctx, p.base, "analyst.news", "/news/summary", token, p.prompt)
}

// HTTPSentimentProvider fetches social sentiment summaries from the sidecar.
type HTTPSentimentProvider struct {
	base   *HTTPServiceBase
	prompt string
}

func NewHTTPSentimentProvider(cfg Config, opts ...pkghttp.ClientOption) *HTTPSentimentProvider {
	return &HTTPSentimentProvider{
		base:   NewHTTPServiceBase(cfg, opts...),
		prompt: promptOr(cfg.Prompts, PromptSentiment, defaultSentimentPrompt),
	}
}

func (p *HTTPSentimentProvider) FetchSentimentSummary(ctx context.Context, token string) (models.TextReport, error) {
	return summarize(ctx, p.base, "analyst.sentiment", "/sentiment/summary", token, p.prompt)
}

var (
	_ domsvc.NewsProvider      = (*HTTPNewsProvider)(nil)
	_ domsvc.SentimentProvider = (*HTTPSentimentProvider)(nil)
)
