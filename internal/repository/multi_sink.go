package repository

import (
	"context"
	"errors"
	"fmt"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
)

// MultiSink fans a report out to every sink in order. A failing sink does not
// stop the others; the joined error names each one that failed.
type MultiSink struct {
	sinks   []domrepo.ReportSink
	metrics domrepo.Metrics
}

func NewMultiSink(metrics domrepo.Metrics, sinks ...domrepo.ReportSink) *MultiSink {
	out := make([]domrepo.ReportSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out, metrics: metrics}
}

func (m *MultiSink) Name() string { return "multi" }

// Len reports how many sinks are attached.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Deliver(ctx context.Context, report *models.Report) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.Deliver(ctx, report)
		if m.metrics != nil {
			m.metrics.RecordDelivery(s.Name(), err)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

var _ domrepo.ReportSink = (*MultiSink)(nil)
