package repository

import (
	"fmt"
	"strings"

	"FinResearch/internal/domain/models"
	"FinResearch/pkg/util"
)

// RenderMarkdown renders the document sections of a report in order.
func RenderMarkdown(report *models.Report) string {
	res := report.Result
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Research Report\n\n", strings.ToUpper(res.Token))
	fmt.Fprintf(&b, "_Generated %s | run %s_\n", res.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"), res.RunID)
	for _, sec := range report.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", sec.Title, strings.TrimSpace(sec.Body))
	}
	return b.String()
}

// ReportFileName is <token>_<yyyymmdd_hhmmss>.md in UTC.
func ReportFileName(res *models.AggregateResult) string {
	return fmt.Sprintf("%s_%s.md", strings.ToLower(res.Token), util.ReportStamp(res.GeneratedAt))
}
