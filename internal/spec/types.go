package spec

import (
	"time"
)

// GenerationRequest is a single user submission to the builder. It is
// created once per request and never mutated after construction.
type GenerationRequest struct {
	RequestID     string                  `json:"request_id"`
	UserID        string                  `json:"user_id"`
	ProjectID     string                  `json:"project_id,omitempty"`
	Prompt        string                  `json:"prompt"`
	Language      string                  `json:"language"`
	Framework     string                  `json:"framework"`
	Specification *TechnicalSpecification `json:"specification,omitempty"`
	Context       *GenerationContext      `json:"context,omitempty"`
	Options       GenerationOptions       `json:"options"`
}

// GenerationOptions carries the caller-facing generation switches.
type GenerationOptions struct {
	Framework      string `json:"framework"`
	Language       string `json:"language"`
	Complexity     string `json:"complexity"`
	IncludeTests   bool   `json:"includeTests"`
	Style          string `json:"style"`
	ApplyStyles    bool   `json:"applyStyles"`
	ApplyTailwind  bool   `json:"applyTailwind"`
	DarkMode       bool   `json:"darkMode"`
	Responsive     bool   `json:"responsive"`
	SkipValidation bool   `json:"skipValidation"`
	SkipAmbiguity  bool   `json:"skipAmbiguity"`
	SkipHistory    bool   `json:"skipHistory"`
}

// GenerationContext is the ambient context flowing through prompt building.
type GenerationContext struct {
	Domain       string   `json:"domain,omitempty"`
	Complexity   string   `json:"complexity,omitempty"`
	Style        string   `json:"style,omitempty"`
	ColorPalette []string `json:"colorPalette,omitempty"`
	Personality  string   `json:"personality,omitempty"`
}

// Architecture describes the high-level shape of the generated app.
type Architecture struct {
	Style    string   `json:"style"`
	Layers   []string `json:"layers"`
	Patterns []string `json:"patterns"`
}

// Component is one planned unit of generation.
type Component struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Purpose          string   `json:"purpose"`
	Responsibilities []string `json:"responsibilities"`
}

// DataEntity is one entry in the planned data model.
type DataEntity struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// Technologies names the stack per layer.
type Technologies struct {
	Frontend string `json:"frontend,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Database string `json:"database,omitempty"`
	Styling  string `json:"styling,omitempty"`
}

// Quality holds the requested quality settings.
type Quality struct {
	TestCoverage  int  `json:"testCoverage,omitempty"`
	Linting       bool `json:"linting,omitempty"`
	Documentation bool `json:"documentation,omitempty"`
}

// TechnicalSpecification drives code generation. It is produced by merging
// the prompt-analysis result, the architecture-advice result and the
// caller's explicit specification, in that precedence order.
type TechnicalSpecification struct {
	Architecture Architecture `json:"architecture"`
	Components   []Component  `json:"components"`
	DataModel    []DataEntity `json:"dataModel"`
	Technologies Technologies `json:"technologies"`
	Quality      Quality      `json:"quality"`
}

// Component type values as inferred from generated file names.
const (
	TypePage      = "page"
	TypeComponent = "component"
	TypeService   = "service"
	TypeModel     = "model"
	TypeUtil      = "util"
	TypeConfig    = "config"
)

// ComponentMetadata holds derived per-file measurements.
type ComponentMetadata struct {
	Lines      int     `json:"lines"`
	Complexity int     `json:"complexity"`
	Coverage   float64 `json:"coverage,omitempty"`
}

// GeneratedComponent is one generated virtual file. A single model response
// may yield several of these when it contains filename delimiters.
type GeneratedComponent struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	Path         string            `json:"path"`
	Code         string            `json:"code"`
	Tests        string            `json:"tests,omitempty"`
	Dependencies []string          `json:"dependencies"`
	Metadata     ComponentMetadata `json:"metadata"`
}

// GenerationSummary aggregates per-run metrics.
type GenerationSummary struct {
	TotalComponents int           `json:"totalComponents"`
	TotalLines      int           `json:"totalLines"`
	TestsGenerated  int           `json:"testsGenerated"`
	Duration        time.Duration `json:"duration"`
}

// GenerationResult is the final output of one generation run. On success
// Components is never empty: failures in sub-engines are replaced by
// deterministic fallbacks rather than propagated.
type GenerationResult struct {
	RequestID     string                 `json:"requestId"`
	Success       bool                   `json:"success"`
	Components    []GeneratedComponent   `json:"components"`
	Specification TechnicalSpecification `json:"specification"`
	QualityScore  float64                `json:"qualityScore"`
	Summary       GenerationSummary      `json:"summary"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// StageStatus is the outcome of one processing stage.
type StageStatus string

const (
	StageSuccess StageStatus = "success"
	StageWarning StageStatus = "warning"
	StageError   StageStatus = "error"
	StageSkipped StageStatus = "skipped"
)

// StageRecord is one entry in the pipeline trace. Records are append-only
// and never mutated after they are added.
type StageRecord struct {
	Name     string        `json:"name"`
	Status   StageStatus   `json:"status"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}
