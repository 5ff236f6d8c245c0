package dtos

import (
	"strings"
	"time"
)

type JobExtractionRequest struct {
	RawHTML string `json:"rawHtml"`
}

type JobCreationRequest struct {
	Title       string `json:"title"`
	CompanyName string `json:"companyName"`

	// Optional Fields
	Description string `json:"description"`
	Location    string `json:"location"`
	Stipend     string `json:"stipend"`
	Deadline    string `json:"deadline"`
}

// DeadlineTime parses Deadline. An empty deadline is nil.
func (r *JobCreationRequest) DeadlineTime() (*time.Time, error) {
	return ParseDate(r.Deadline)
}

// JobDraft is what the extraction model returns for a pasted job posting.
// Fields map onto JobCreationRequest so the frontend can prefill the form.
type JobDraft struct {
	Title       string   `json:"title"`
	CompanyName string   `json:"companyName"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Stipend     string   `json:"stipend"`
	Deadline    string   `json:"deadline"`
	TechStack   []string `json:"techStack"`
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts the date formats browsers send. Empty input is nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
