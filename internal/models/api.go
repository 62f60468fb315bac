package models

import (
	"time"

	"github.com/orusmind/orus-builder/internal/spec"
)

// GenerateRequest represents the generation request payload
type GenerateRequest struct {
	Prompt    string                  `json:"prompt" binding:"required"`
	ProjectID string                  `json:"projectId,omitempty"`
	Framework string                  `json:"framework,omitempty"`
	Context   *spec.GenerationContext `json:"context,omitempty"`
	Options   *spec.GenerationOptions `json:"options,omitempty"`
}

// GenerateResponse represents a completed generation run
type GenerateResponse struct {
	Success      bool                      `json:"success"`
	JobID        string                    `json:"jobId"`
	Ready        bool                      `json:"ready"`
	QualityScore float64                   `json:"qualityScore"`
	Components   []spec.GeneratedComponent `json:"components"`
	Summary      spec.GenerationSummary    `json:"summary"`
	Trace        []spec.StageRecord        `json:"trace,omitempty"`
	CreatedAt    time.Time                 `json:"createdAt"`
}

// ClarificationResponse is returned when the prompt pipeline decides the
// prompt is not ready for generation
type ClarificationResponse struct {
	Success   bool               `json:"success"`
	Ready     bool               `json:"ready"`
	Questions []string           `json:"questions"`
	Trace     []spec.StageRecord `json:"trace,omitempty"`
}

// ProjectRequest represents the create/update project payload
type ProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Framework   string `json:"framework"`
}

// FeedbackRequest represents the feedback submission payload
type FeedbackRequest struct {
	JobID   string `json:"jobId" binding:"required"`
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}
