package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"FinResearch/internal/domain/models"
	domrepo "FinResearch/internal/domain/repository"
)

// FileSink writes each report as a markdown file under dir.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

func (s *FileSink) Name() string { return "file" }

func (s *FileSink) Deliver(ctx context.Context, report *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, ReportFileName(report.Result))
	if err := os.WriteFile(path, []byte(RenderMarkdown(report)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Path returns where report would be written.
func (s *FileSink) Path(report *models.Report) string {
	return filepath.Join(s.dir, ReportFileName(report.Result))
}

var _ domrepo.ReportSink = (*FileSink)(nil)
