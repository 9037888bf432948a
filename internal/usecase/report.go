package usecase

import (
	"fmt"
	"strings"
	"time"

	"FinResearch/internal/domain/models"
)

const (
	NoAllocationNote  = "insufficient price data for allocation guidance"
	DefaultDisclaimer = "This report is for informational purposes only and is not financial advice. " +
		"Allocation guidance is derived mechanically from technical signals and ignores personal circumstances."
)

// ReportAssembler orders collaborator text and the verdict into a document.
type ReportAssembler struct {
	disclaimer string
}

func NewReportAssembler(disclaimer string) *ReportAssembler {
	if disclaimer == "" {
		disclaimer = DefaultDisclaimer
	}
	return &ReportAssembler{disclaimer: disclaimer}
}

// Build assembles the sections and pairs them with the result.
func (a *ReportAssembler) Build(res *models.AggregateResult) *models.Report {
	return &models.Report{Result: res, Sections: a.Assemble(res)}
}

// Assemble returns the sections in fixed order: executive, allocation, price,
// news, sentiment, footer. Unavailable sections become placeholders naming the failure.
func (a *ReportAssembler) Assemble(res *models.AggregateResult) []models.DocumentSection {
	out := make([]models.DocumentSection, 0, 6)
	out = append(out, executive(res), allocationSection(res))
	for _, name := range models.ResearchSections {
		out = append(out, researchSection(name, res.Sections[name]))
	}
	return append(out, a.footer(res))
}

// SectionPlaceholder is the body shown in place of a failed section.
func SectionPlaceholder(r models.JobResult[string]) string {
	kind := r.Kind
	if r.Status == models.JobTimedOut {
		kind = models.ErrTimedOut
	}
	if kind == "" {
		kind = models.ErrInternal
	}
	if r.Message == "" {
		return fmt.Sprintf("Section unavailable (%s)", kind)
	}
	return fmt.Sprintf("Section unavailable (%s): %s", kind, r.Message)
}

func executive(res *models.AggregateResult) models.DocumentSection {
	available := len(models.ResearchSections) - len(res.Failed())
	lines := []string{
		fmt.Sprintf("Research on %s: %d of %d sections available.", res.Token, available, len(models.ResearchSections)),
	}
	if v := res.Allocation; v != nil {
		lines = append(lines, fmt.Sprintf("Weekly bias: %s (%d%% of planned DCA).", v.Bias, v.AllocationPercent))
	}
	return models.DocumentSection{
		Kind:        models.KindExecutive,
		Title:       "Executive Summary",
		Body:        strings.Join(lines, " "),
		Placeholder: true,
	}
}

func allocationSection(res *models.AggregateResult) models.DocumentSection {
	sec := models.DocumentSection{Kind: models.KindAllocation, Title: "Weekly Allocation Guidance"}
	v := res.Allocation
	if v == nil {
		sec.Body = NoAllocationNote
		sec.Placeholder = true
		return sec
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Action Bias**: %s\n", v.Bias)
	fmt.Fprintf(&b, "**Allocation Hint**: %d%% of weekly DCA\n", v.AllocationPercent)
	fmt.Fprintf(&b, "**Time Horizon**: %s\n", v.TimeHorizon)
	if v.Downgraded {
		fmt.Fprintf(&b, "**Base Bias**: %s (downgraded for missing news/sentiment)\n", v.BaseBias)
	}
	writeList(&b, "Why", v.Rationale)
	writeList(&b, "Invalidation Triggers", v.InvalidationTriggers)
	writeList(&b, "Next Check", v.NextChecks)
	sec.Body = strings.TrimRight(b.String(), "\n")
	return sec
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func researchSection(name models.SectionName, r models.JobResult[string]) models.DocumentSection {
	sec := models.DocumentSection{Kind: models.SectionKind(name), Title: name.Title()}
	if r.OK() {
		sec.Body = r.Value
		return sec
	}
	sec.Body = SectionPlaceholder(r)
	sec.Placeholder = true
	return sec
}

func (a *ReportAssembler) footer(res *models.AggregateResult) models.DocumentSection {
	var b strings.Builder
	b.WriteString(a.disclaimer)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "- Run ID: %s\n", res.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", res.GeneratedAt.UTC().Format(time.RFC3339))
	for _, name := range models.ResearchSections {
		r := res.Sections[name]
		status := r.Status.String()
		if !r.OK() && r.Kind != "" {
			status += " (" + string(r.Kind) + ")"
		}
		fmt.Fprintf(&b, "- %s: %s\n", name.Title(), status)
	}
	if failed := res.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, "- Data gaps: %s\n", strings.Join(names, ", "))
	}
	return models.DocumentSection{
		Kind:  models.KindFooter,
		Title: "Risk & Metadata",
		Body:  strings.TrimRight(b.String(), "\n"),
	}
}
