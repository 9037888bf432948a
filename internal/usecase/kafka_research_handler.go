package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	domrepo "FinResearch/internal/domain/repository"
	pkgkafka "FinResearch/pkg/kafka"
)

// KafkaResearchHandler consumes research requests and runs them with delivery.
type KafkaResearchHandler struct {
	topic   string
	uc      *ResearchUseCase
	metrics domrepo.Metrics
}

func NewKafkaResearchHandler(topic string, uc *ResearchUseCase, metrics domrepo.Metrics) *KafkaResearchHandler {
	return &KafkaResearchHandler{topic: topic, uc: uc, metrics: metrics}
}

func (h *KafkaResearchHandler) Topic() string { return h.topic }

// incoming message schema: {"token": "BTC"}
func (h *KafkaResearchHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.recordError("consumer_unmarshal")
		return err
	}
	m.Token = strings.TrimSpace(m.Token)
	if m.Token == "" {
		h.recordError("consumer_empty_token")
		return fmt.Errorf("research request without token")
	}
	h.uc.Run(ctx, m.Token, true, nil)
	return nil
}

func (h *KafkaResearchHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaResearchHandler)(nil)
