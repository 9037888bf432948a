package models

import "time"

// SectionName is the closed set of research jobs dispatched per run.
type SectionName string

const (
	SectionPrice     SectionName = "price"
	SectionNews      SectionName = "news"
	SectionSentiment SectionName = "sentiment"
)

// ResearchSections is the dispatch and display order.
var ResearchSections = []SectionName{SectionPrice, SectionNews, SectionSentiment}

func (s SectionName) Title() string {
	switch s {
	case SectionPrice:
		return "Price Analysis"
	case SectionNews:
		return "News Analysis"
	case SectionSentiment:
		return "Sentiment Analysis"
	default:
		return string(s)
	}
}

// AggregateResult is the output of one research run. It is written once after
// all jobs joined and not mutated afterwards.
type AggregateResult struct {
	RunID       string
	Token       string
	Sections    map[SectionName]JobResult[string]
	Allocation  *AllocationVerdict // nil only when the price section failed
	Snapshot    *SignalSnapshot
	Sentiment   map[SectionName]Sentiment
	GeneratedAt time.Time
	Duration    time.Duration
}

// Failed lists sections without a value, in display order.
func (r *AggregateResult) Failed() []SectionName {
	var out []SectionName
	for _, name := range ResearchSections {
		if res, ok := r.Sections[name]; !ok || !res.OK() {
			out = append(out, name)
		}
	}
	return out
}
