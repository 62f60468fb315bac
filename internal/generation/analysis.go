package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/orusmind/orus-builder/internal/codegen"
	"github.com/orusmind/orus-builder/internal/llm"
	"github.com/orusmind/orus-builder/internal/spec"
)

const analysisSystemPrompt = `You are a software architect. Analyze the user's app request and
respond with a single JSON object of this shape:
{
  "architecture": {"style": "...", "layers": ["..."], "patterns": ["..."]},
  "components": [{"name": "...", "type": "page|component|service|model", "purpose": "...", "responsibilities": ["..."]}],
  "dataModel": [{"name": "...", "fields": ["..."]}],
  "technologies": {"frontend": "...", "backend": "...", "database": "...", "styling": "..."}
}
Respond with JSON only, no prose.`

const adviceSystemPrompt = `You are a software architect advising on high-level structure.
Respond with a single JSON object:
{"architecture": {"style": "...", "layers": ["..."]}}
Respond with JSON only, no prose.`

// analyzePrompt asks the model for a structured specification of the
// request. Malformed responses are an error; the caller substitutes the
// fallback analysis.
func (e *Engine) analyzePrompt(ctx context.Context, req *spec.GenerationRequest) (spec.TechnicalSpecification, error) {
	raw, err := e.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: analysisSystemPrompt},
		{Role: llm.RoleUser, Content: req.Prompt},
	}, llm.ChatOptions{Temperature: 0.2, MaxTokens: 2048, JSONMode: true})
	if err != nil {
		return spec.TechnicalSpecification{}, err
	}

	var analyzed spec.TechnicalSpecification
	if err := unmarshalLoosely(raw, &analyzed); err != nil {
		return spec.TechnicalSpecification{}, fmt.Errorf("parse analysis: %w", err)
	}
	if len(analyzed.Components) == 0 {
		return spec.TechnicalSpecification{}, fmt.Errorf("analysis produced no components")
	}
	return analyzed, nil
}

// architectureAdvice asks for style/layer advice only. Its output feeds the
// merge at lower precedence than the caller's explicit specification.
func (e *Engine) architectureAdvice(ctx context.Context, req *spec.GenerationRequest, analysis spec.TechnicalSpecification) (spec.TechnicalSpecification, error) {
	summary, _ := json.Marshal(analysis.Architecture)
	raw, err := e.llm.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: adviceSystemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Request: %s\nCurrent architecture: %s", req.Prompt, summary)},
	}, llm.ChatOptions{Temperature: 0.2, MaxTokens: 512, JSONMode: true})
	if err != nil {
		return spec.TechnicalSpecification{}, err
	}

	var advice spec.TechnicalSpecification
	if err := unmarshalLoosely(raw, &advice); err != nil {
		return spec.TechnicalSpecification{}, fmt.Errorf("parse advice: %w", err)
	}
	return advice, nil
}

// unmarshalLoosely tolerates prose and markdown fences around the JSON
// object the model was asked for: it decodes the substring between the
// first '{' and the last '}'.
func unmarshalLoosely(raw string, v interface{}) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in response")
	}
	return json.Unmarshal([]byte(raw[start:end+1]), v)
}

// FallbackAnalysis is the deterministic specification used when prompt
// analysis fails: a layered single-page app with one root component.
func FallbackAnalysis(req *spec.GenerationRequest) spec.TechnicalSpecification {
	frontend := req.Framework
	if frontend == "" {
		frontend = "react"
	}
	return spec.TechnicalSpecification{
		Architecture: spec.Architecture{
			Style:    "layered",
			Layers:   []string{"presentation", "application"},
			Patterns: []string{"hooks"},
		},
		Components: []spec.Component{{
			Name:             "App",
			Type:             spec.TypeComponent,
			Purpose:          "Application root rendering the requested interface",
			Responsibilities: []string{"compose layout", "hold top-level state"},
		}},
		Technologies: spec.Technologies{
			Frontend: frontend,
			Styling:  "tailwind",
		},
	}
}

// fallbackAppComponent is emitted when every planned component failed, so a
// successful result is never empty.
func fallbackAppComponent(req *spec.GenerationRequest) spec.GeneratedComponent {
	code := fallbackAppCode(req.Prompt)
	return spec.GeneratedComponent{
		ID:           uuid.New().String(),
		Name:         "App",
		Type:         spec.TypeComponent,
		Path:         codegen.ComponentPath("App", spec.TypeComponent, req.Framework),
		Code:         code,
		Dependencies: codegen.ExtractDependencies(code),
		Metadata: spec.ComponentMetadata{
			Lines:      codegen.CountLines(code),
			Complexity: codegen.Complexity(code),
		},
	}
}

func fallbackAppCode(promptText string) string {
	title := strings.TrimSpace(promptText)
	if len(title) > 60 {
		title = title[:60] + "…"
	}
	if title == "" {
		title = "Generated App"
	}
	return fmt.Sprintf(`import React from 'react';

function App() {
  return (
    <div style={{ padding: 32, fontFamily: 'sans-serif' }}>
      <h1>%s</h1>
      <p>Scaffold generated by ORUS Builder. Generation of detailed components failed; retry to regenerate.</p>
    </div>
  );
}

export default App;
`, title)
}

func fallbackTest(name string) string {
	return fmt.Sprintf(`import { render } from '@testing-library/react';
import %s from './%s';

test('renders without crashing', () => {
  render(<%s />);
});
`, name, name, name)
}
