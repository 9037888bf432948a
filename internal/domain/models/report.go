package models

// SectionKind identifies a block of the assembled document.
type SectionKind string

const (
	KindExecutive  SectionKind = "executive"
	KindAllocation SectionKind = "allocation"
	KindPrice      SectionKind = "price"
	KindNews       SectionKind = "news"
	KindSentiment  SectionKind = "sentiment"
	KindFooter     SectionKind = "footer"
)

// DocumentSection is one ordered block of a research report.
type DocumentSection struct {
	Kind        SectionKind
	Title       string
	Body        string
	Placeholder bool
}

// Report is what output sinks receive.
type Report struct {
	Result   *AggregateResult
	Sections []DocumentSection
}
