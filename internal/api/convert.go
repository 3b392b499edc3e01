package api

import (
	"time"

	"scribe/internal/captions"
	"scribe/internal/deps"
)

// FromSegments converts parsed captions to their API representation. The
// result is never nil so the payload always carries a JSON array.
func FromSegments(segments []captions.Segment) TranscribeResponse {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return TranscribeResponse{Segments: out}
}

// FromDependencyStatuses converts dependency checks to their API representation.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// NewHealthResponse summarizes dependency checks and installed models.
func NewHealthResponse(now time.Time, statuses []deps.Status, defaultModel string, models []string) HealthResponse {
	status := HealthOK
	if !deps.Healthy(statuses) {
		status = HealthDegraded
	}
	if models == nil {
		models = []string{}
	}
	return HealthResponse{
		Status:       status,
		Time:         now.UTC().Format(dateTimeFormat),
		DefaultModel: defaultModel,
		Models:       models,
		Dependencies: FromDependencyStatuses(statuses),
	}
}
