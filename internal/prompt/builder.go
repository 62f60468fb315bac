// Package prompt builds the per-component prompts sent to the model. Each
// component is routed to one of three templates (UI component, backend
// service, data model) by matching its type against fixed keyword sets.
package prompt

import (
	"fmt"
	"strings"

	"github.com/orusmind/orus-builder/internal/spec"
)

// Category is the prompt template family selected for a component.
type Category string

const (
	CategoryUI      Category = "ui"
	CategoryBackend Category = "backend"
	CategoryModel   Category = "model"
)

var backendTypes = map[string]bool{
	"service":    true,
	"server":     true,
	"route":      true,
	"routes":     true,
	"controller": true,
	"api":        true,
	"backend":    true,
	"middleware": true,
}

var modelTypes = map[string]bool{
	"model":     true,
	"schema":    true,
	"entity":    true,
	"interface": true,
}

var defaultPalette = []string{"#6366F1", "#8B5CF6", "#EC4899", "#0F172A", "#F8FAFC"}

// Builder renders component prompts for a fixed framework target.
type Builder struct {
	framework string
}

// NewBuilder returns a Builder for the given frontend framework. An empty
// framework defaults to React.
func NewBuilder(framework string) *Builder {
	if framework == "" {
		framework = "react"
	}
	return &Builder{framework: framework}
}

// Categorize maps a component type to its template family. Unknown types
// fall back to the UI template.
func Categorize(componentType string) Category {
	t := strings.ToLower(strings.TrimSpace(componentType))
	switch {
	case backendTypes[t]:
		return CategoryBackend
	case modelTypes[t]:
		return CategoryModel
	default:
		return CategoryUI
	}
}

// Build produces the user prompt for one component. The function is total:
// every input yields a usable prompt, and a missing color palette degrades
// to the default palette baked into the UI template.
func (b *Builder) Build(component spec.Component, pctx *spec.GenerationContext) string {
	switch Categorize(component.Type) {
	case CategoryBackend:
		return b.backendPrompt(component, pctx)
	case CategoryModel:
		return b.modelPrompt(component, pctx)
	default:
		return b.uiPrompt(component, pctx)
	}
}

// System returns the system prompt paired with the component's template
// family.
func (b *Builder) System(component spec.Component) string {
	switch Categorize(component.Type) {
	case CategoryBackend:
		return systemBackend
	case CategoryModel:
		return systemModel
	default:
		return fmt.Sprintf(systemUI, b.framework)
	}
}

func (b *Builder) uiPrompt(c spec.Component, pctx *spec.GenerationContext) string {
	palette := defaultPalette
	personality := "clean and professional"
	domain := "web application"
	if pctx != nil {
		if len(pctx.ColorPalette) > 0 {
			palette = pctx.ColorPalette
		}
		if pctx.Personality != "" {
			personality = pctx.Personality
		}
		if pctx.Domain != "" {
			domain = pctx.Domain
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a %s component named %q for a %s.\n\n", b.framework, c.Name, domain)
	fmt.Fprintf(&sb, "Purpose: %s\n", orDefault(c.Purpose, "part of the application UI"))
	writeResponsibilities(&sb, c.Responsibilities)
	fmt.Fprintf(&sb, "\nVisual direction: %s.\n", personality)
	fmt.Fprintf(&sb, "Color palette: %s.\n", strings.Join(palette, ", "))
	sb.WriteString(`
Requirements:
- Functional component with hooks (useState, useEffect as needed)
- Inline styles or Tailwind utility classes, no external CSS imports
- End the file with a single "export default" statement
- Respond with code only, no explanations or markdown fences`)
	return sb.String()
}

func (b *Builder) backendPrompt(c spec.Component, pctx *spec.GenerationContext) string {
	domain := "web application"
	if pctx != nil && pctx.Domain != "" {
		domain = pctx.Domain
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate an Express %s named %q for a %s backend.\n\n", strings.ToLower(orDefault(c.Type, "service")), c.Name, domain)
	fmt.Fprintf(&sb, "Purpose: %s\n", orDefault(c.Purpose, "server-side logic"))
	writeResponsibilities(&sb, c.Responsibilities)
	sb.WriteString(`
Requirements:
- Node.js + Express, ES module syntax
- Async route handlers with try/catch and JSON error responses
- One file per concern; if several files are needed, delimit each with a
  "// filename.ext" comment line
- Respond with code only, no explanations or markdown fences`)
	return sb.String()
}

func (b *Builder) modelPrompt(c spec.Component, pctx *spec.GenerationContext) string {
	domain := "web application"
	if pctx != nil && pctx.Domain != "" {
		domain = pctx.Domain
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate the data model %q for a %s.\n\n", c.Name, domain)
	fmt.Fprintf(&sb, "Purpose: %s\n", orDefault(c.Purpose, "domain data shape"))
	writeResponsibilities(&sb, c.Responsibilities)
	sb.WriteString(`
Requirements:
- Plain object schema plus validation helpers, ES module syntax
- Document each field with a short comment
- Respond with code only, no explanations or markdown fences`)
	return sb.String()
}

func writeResponsibilities(sb *strings.Builder, responsibilities []string) {
	if len(responsibilities) == 0 {
		return
	}
	sb.WriteString("Responsibilities:\n")
	for _, r := range responsibilities {
		fmt.Fprintf(sb, "- %s\n", r)
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

const systemUI = `You are a senior frontend engineer generating production-quality %s components.
Write self-contained components that compile in a browser sandbox without a build step.
Never include explanations, markdown fences or TODO placeholders.`

const systemBackend = `You are a senior backend engineer generating Node.js + Express code.
Write complete, runnable modules with explicit error handling.
Never include explanations, markdown fences or TODO placeholders.`

const systemModel = `You are a data modeling assistant generating JavaScript domain models.
Write plain, dependency-free schema modules with validation helpers.
Never include explanations, markdown fences or TODO placeholders.`
