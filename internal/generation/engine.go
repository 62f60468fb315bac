// Package generation runs the component generation loop: for each planned
// component it builds a prompt, calls the model, repairs the output and
// records the resulting files. The loop is partial-failure tolerant: a
// failing component is logged and skipped, and every sub-engine failure is
// replaced by a deterministic fallback so callers always receive a typed
// result.
package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/orusmind/orus-builder/internal/codegen"
	"github.com/orusmind/orus-builder/internal/llm"
	"github.com/orusmind/orus-builder/internal/prompt"
	"github.com/orusmind/orus-builder/internal/spec"
)

var tracer = otel.Tracer("generation-engine")

// ProgressEvent reports per-component progress to observers (the WebSocket
// stream and metrics).
type ProgressEvent struct {
	Stage     string `json:"stage"`
	Component string `json:"component,omitempty"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(ProgressEvent)

// Engine orchestrates prompt analysis, specification merge and the
// component loop for one generation request.
type Engine struct {
	llm    llm.ChatClient
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewEngine builds an engine around the given chat client.
func NewEngine(client llm.ChatClient, logger zerolog.Logger) *Engine {
	return &Engine{
		llm:    client,
		logger: logger.With().Str("component", "generation").Logger(),
		tracer: tracer,
	}
}

// Generate runs the full generation flow for a request. It never returns an
// error for model failures: analysis failures fall back to the default
// specification and component failures are skipped. The returned result
// always has at least one component.
func (e *Engine) Generate(ctx context.Context, req *spec.GenerationRequest, progress ProgressFunc) *spec.GenerationResult {
	ctx, span := e.tracer.Start(ctx, "generation.generate")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", req.RequestID))

	started := time.Now()
	emit := func(ev ProgressEvent) {
		if progress != nil {
			progress(ev)
		}
	}

	emit(ProgressEvent{Stage: "analyze"})
	analysis, err := e.analyzePrompt(ctx, req)
	if err != nil {
		e.logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("prompt analysis failed, using fallback")
		analysis = FallbackAnalysis(req)
	}

	advice, err := e.architectureAdvice(ctx, req, analysis)
	if err != nil {
		e.logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("architecture advice failed, continuing without it")
		advice = spec.TechnicalSpecification{}
	}

	merged := spec.Merge(analysis, advice, req.Specification)

	domain := ""
	if req.Context != nil {
		domain = req.Context.Domain
	}
	if injected := spec.EnsureBackendForDomain(&merged, domain); injected {
		e.logger.Info().Str("domain", domain).Msg("injected synthetic backend components")
	}

	builder := prompt.NewBuilder(req.Framework)
	total := len(merged.Components)
	var components []spec.GeneratedComponent
	testsGenerated := 0

	for i, planned := range merged.Components {
		emit(ProgressEvent{Stage: "component", Component: planned.Name, Index: i + 1, Total: total})

		generated, err := e.generateComponent(ctx, builder, planned, req)
		if err != nil {
			e.logger.Error().Err(err).
				Str("request_id", req.RequestID).
				Str("component", planned.Name).
				Msg("component generation failed, skipping")
			emit(ProgressEvent{Stage: "component", Component: planned.Name, Index: i + 1, Total: total, Error: err.Error()})
			continue
		}

		if req.Options.IncludeTests {
			for j := range generated {
				generated[j].Tests = e.generateTests(ctx, builder, planned, generated[j])
				if generated[j].Tests != "" {
					testsGenerated++
				}
			}
		}

		components = append(components, generated...)
	}

	if len(components) == 0 {
		e.logger.Warn().Str("request_id", req.RequestID).Msg("no components survived generation, emitting fallback app")
		components = append(components, fallbackAppComponent(req))
	}

	totalLines := 0
	for _, c := range components {
		totalLines += c.Metadata.Lines
	}

	result := &spec.GenerationResult{
		RequestID:     req.RequestID,
		Success:       true,
		Components:    components,
		Specification: merged,
		QualityScore:  qualityScore(components),
		Summary: spec.GenerationSummary{
			TotalComponents: len(components),
			TotalLines:      totalLines,
			TestsGenerated:  testsGenerated,
			Duration:        time.Since(started),
		},
		CreatedAt: time.Now(),
	}

	emit(ProgressEvent{Stage: "done", Total: len(components)})
	span.SetAttributes(
		attribute.Int("generation.components", len(components)),
		attribute.Float64("generation.quality", result.QualityScore),
	)

	return result
}

// generateComponent runs the per-component step sequence: prompt → model →
// repair → split-or-single.
func (e *Engine) generateComponent(ctx context.Context, builder *prompt.Builder, planned spec.Component, req *spec.GenerationRequest) ([]spec.GeneratedComponent, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: builder.System(planned)},
		{Role: llm.RoleUser, Content: builder.Build(planned, req.Context)},
	}

	raw, err := e.llm.Chat(ctx, messages, llm.ChatOptions{Temperature: 0.4, MaxTokens: 4096})
	if err != nil {
		return nil, err
	}

	repaired := codegen.Repair(raw)

	if split := codegen.SplitMultiFile(repaired); len(split) > 0 {
		return split, nil
	}

	return []spec.GeneratedComponent{{
		ID:           uuid.New().String(),
		Name:         planned.Name,
		Type:         normalizeType(planned.Type),
		Path:         codegen.ComponentPath(planned.Name, planned.Type, req.Framework),
		Code:         repaired,
		Dependencies: codegen.ExtractDependencies(repaired),
		Metadata: spec.ComponentMetadata{
			Lines:      codegen.CountLines(repaired),
			Complexity: codegen.Complexity(repaired),
		},
	}}, nil
}

// generateTests asks the model for a test file and falls back to a
// deterministic smoke-test template when the call fails.
func (e *Engine) generateTests(ctx context.Context, builder *prompt.Builder, planned spec.Component, generated spec.GeneratedComponent) string {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: "You write concise unit tests. Respond with code only."},
		{Role: llm.RoleUser, Content: "Write a minimal test file for this module:\n\n" + generated.Code},
	}
	raw, err := e.llm.Chat(ctx, messages, llm.ChatOptions{Temperature: 0.2, MaxTokens: 2048})
	if err != nil {
		e.logger.Warn().Err(err).Str("component", planned.Name).Msg("test generation failed, using template")
		return fallbackTest(generated.Name)
	}
	return codegen.Repair(raw)
}

func normalizeType(t string) string {
	switch prompt.Categorize(t) {
	case prompt.CategoryBackend:
		return spec.TypeService
	case prompt.CategoryModel:
		return spec.TypeModel
	default:
		if t == spec.TypePage {
			return spec.TypePage
		}
		return spec.TypeComponent
	}
}

// qualityScore derives a 0-100 score from the generated set: high average
// complexity is penalized, test presence is rewarded.
func qualityScore(components []spec.GeneratedComponent) float64 {
	if len(components) == 0 {
		return 0
	}

	totalComplexity := 0
	withTests := 0
	for _, c := range components {
		totalComplexity += c.Metadata.Complexity
		if c.Tests != "" {
			withTests++
		}
	}
	avg := float64(totalComplexity) / float64(len(components))

	score := 85.0
	if avg > 10 {
		penalty := (avg - 10) * 2
		if penalty > 45 {
			penalty = 45
		}
		score -= penalty
	}
	score += 15 * float64(withTests) / float64(len(components))

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
