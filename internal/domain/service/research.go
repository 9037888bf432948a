package service

import (
	"context"

	"FinResearch/internal/domain/models"
)

// PriceProvider returns market data and the structured signal snapshot for a token.
type PriceProvider interface {
	FetchPriceSignal(ctx context.Context, token string) (models.PriceReport, error)
}

// NewsProvider summarises recent news for a token.
type NewsProvider interface {
	FetchNewsSummary(ctx context.Context, token string) (models.TextReport, error)
}

// SentimentProvider summarises social and market sentiment for a token.
type SentimentProvider interface {
	FetchSentimentSummary(ctx context.Context, token string) (models.TextReport, error)
}
