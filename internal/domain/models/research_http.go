package models

import "time"

// Transport shapes for the research endpoints, queue payloads and Kafka messages.

type ResearchRequest struct {
	Token   string `query:"token" json:"token" validate:"required,max=64"`
	Deliver bool   `query:"deliver" json:"deliver"`
}

// ResearchJobRequest is a queued research request. A missing deliver field
// means the report goes to the sinks.
type ResearchJobRequest struct {
	Token   string `json:"token" validate:"required,max=64"`
	Deliver *bool  `json:"deliver,omitempty" default:"true"`
}

func (r ResearchJobRequest) ShouldDeliver() bool {
	return r.Deliver == nil || *r.Deliver
}

type SectionDTO struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}

type AllocationDTO struct {
	Bias                 string   `json:"bias"`
	BaseBias             string   `json:"base_bias"`
	AllocationPercent    int      `json:"allocation_percent"`
	Rationale            []string `json:"rationale"`
	InvalidationTriggers []string `json:"invalidation_triggers"`
	NextChecks           []string `json:"next_checks,omitempty"`
	TimeHorizon          string   `json:"time_horizon"`
	Downgraded           bool     `json:"downgraded"`
}

type DocumentSectionDTO struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

type ResearchResponse struct {
	RunID       string               `json:"run_id"`
	Token       string               `json:"token"`
	GeneratedAt time.Time            `json:"generated_at"`
	DurationMS  int64                `json:"duration_ms"`
	Sections    []SectionDTO         `json:"sections"`
	Allocation  *AllocationDTO       `json:"allocation,omitempty"`
	Document    []DocumentSectionDTO `json:"document,omitempty"`
}

// NewResearchResponse flattens a report into its wire shape. doc may be nil.
func NewResearchResponse(res *AggregateResult, doc []DocumentSection) ResearchResponse {
	out := ResearchResponse{
		RunID:       res.RunID,
		Token:       res.Token,
		GeneratedAt: res.GeneratedAt,
		DurationMS:  res.Duration.Milliseconds(),
	}
	for _, name := range ResearchSections {
		r := res.Sections[name]
		out.Sections = append(out.Sections, SectionDTO{
			Name:    string(name),
			Status:  r.Status.String(),
			Kind:    string(r.Kind),
			Message: r.Message,
			Text:    r.Value,
		})
	}
	if v := res.Allocation; v != nil {
		out.Allocation = &AllocationDTO{
			Bias:                 v.Bias.String(),
			BaseBias:             v.BaseBias.String(),
			AllocationPercent:    v.AllocationPercent,
			Rationale:            v.Rationale,
			InvalidationTriggers: v.InvalidationTriggers,
			NextChecks:           v.NextChecks,
			TimeHorizon:          v.TimeHorizon,
			Downgraded:           v.Downgraded,
		}
	}
	for _, s := range doc {
		out.Document = append(out.Document, DocumentSectionDTO{
			Kind:        string(s.Kind),
			Title:       s.Title,
			Body:        s.Body,
			Placeholder: s.Placeholder,
		})
	}
	return out
}
