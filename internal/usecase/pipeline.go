package usecase

import (
	"context"
	"time"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
	applogger "FinResearch/pkg/logger"
)

const defaultDeliverTimeout = 15 * time.Second

// ResearchUseCase runs research, assembles the report and hands it to the sinks.
type ResearchUseCase struct {
	coord          *ResearchCoordinator
	asm            *ReportAssembler
	sink           domrepo.ReportSink
	deliverTimeout time.Duration
	l              *applogger.Logger
}

func NewResearchUseCase(coord *ResearchCoordinator, asm *ReportAssembler, sink domrepo.ReportSink, l *applogger.Logger) *ResearchUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ResearchUseCase{coord: coord, asm: asm, sink: sink, deliverTimeout: defaultDeliverTimeout, l: l}
}

// SetDeliverTimeout bounds each delivery attempt.
func (uc *ResearchUseCase) SetDeliverTimeout(d time.Duration) {
	if d > 0 {
		uc.deliverTimeout = d
	}
}

// Run researches token and returns the assembled report. When deliver is set
// the report is also handed to the sinks; delivery errors are only logged.
func (uc *ResearchUseCase) Run(ctx context.Context, token string, deliver bool, obs Observer) *models.Report {
	res := uc.coord.ResearchWithObserver(ctx, token, obs)
	report := uc.asm.Build(res)
	if deliver {
		uc.Deliver(ctx, report)
	}
	return report
}

// Deliver sends the report to the configured sink. It never fails the caller.
func (uc *ResearchUseCase) Deliver(ctx context.Context, report *models.Report) {
	if uc.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.deliverTimeout)
	defer cancel()

	if err := uc.sink.Deliver(ctx, report); err != nil {
		uc.l.Warn("report delivery failed",
			applogger.String("run_id", report.Result.RunID),
			applogger.String("token", report.Result.Token),
			applogger.String("sink", uc.sink.Name()),
			applogger.Error(err),
		)
		return
	}
	uc.l.Info("report delivered",
		applogger.String("run_id", report.Result.RunID),
		applogger.String("sink", uc.sink.Name()),
	)
}
