package repository

import (
	"context"
	"fmt"
	"strings"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	pkgkafka "FinResearch/pkg/kafka"
)

// KafkaReportSink publishes finished reports keyed by token.
type KafkaReportSink struct {
	publisher pkgkafka.Publisher
	topic     string
}

func NewKafkaReportSink(publisher pkgkafka.Publisher, topic string) *KafkaReportSink {
	return &KafkaReportSink{publisher: publisher, topic: topic}
}

func (p *KafkaReportSink) Name() string { return "kafka" }

func (p *KafkaReportSink) Deliver(ctx context.Context, report *models.Report) error {
	res := report.Result
	key := []byte(strings.ToUpper(res.Token))
	if err := p.publisher.Publish(ctx, p.topic, key, models.NewResearchResponse(res, report.Sections)); err != nil {
		return fmt.Errorf("publish report %s: %w", res.RunID, err)
	}
	return nil
}

// KafkaLogPublisher ships aggregated log entries through the shared producer.
type KafkaLogPublisher struct {
	publisher pkgkafka.Publisher
}

func NewKafkaLogPublisher(publisher pkgkafka.Publisher) *KafkaLogPublisher {
	return &KafkaLogPublisher{publisher: publisher}
}

func (p *KafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.publisher.Publish(ctx, topic, nil, payload)
}

var _ domrepo.ReportSink = (*KafkaReportSink)(nil)
