package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Segment is one transcript cue.
type Segment struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// TranscribeResponse is the success payload of POST /transcribe.
type TranscribeResponse struct {
	Segments []Segment `json:"transcription_segments"`
}

// ErrorResponse is the payload of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse is the payload of GET /healthz.
type HealthResponse struct {
	Status       string             `json:"status"`
	Time         string             `json:"time"`
	DefaultModel string             `json:"default_model"`
	Models       []string           `json:"models"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// Health states reported by GET /healthz.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)
