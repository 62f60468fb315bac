package codegen

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/orusmind/orus-builder/internal/spec"
)

// fileDelimiterRe matches the `// filename.ext` comment the generation
// prompts instruct the model to emit between virtual files.
var fileDelimiterRe = regexp.MustCompile(`(?m)^//\s*<?([\w\-./]+\.(?:tsx|ts|jsx|js|mjs|css|json|html))>?\s*$`)

// SplitMultiFile partitions one raw model response into independent file
// records, one per `// filename.ext` delimiter comment. When no delimiter
// is present it returns nil and the caller treats the whole text as a
// single file. The split is heuristic only: nothing checks that each
// segment compiles.
func SplitMultiFile(raw string) []spec.GeneratedComponent {
	matches := fileDelimiterRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	components := make([]spec.GeneratedComponent, 0, len(matches))
	for i, m := range matches {
		name := raw[m[2]:m[3]]

		start := m[1]
		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(raw[start:end])
		if content == "" {
			continue
		}

		kind, dir := classifyFile(name)
		components = append(components, spec.GeneratedComponent{
			ID:   uuid.New().String(),
			Name: strings.TrimSuffix(path.Base(name), path.Ext(name)),
			Type: kind,
			Path: path.Join(dir, path.Base(name)),
			Code: content + "\n",
			Metadata: spec.ComponentMetadata{
				Lines:      CountLines(content),
				Complexity: Complexity(content),
			},
			Dependencies: ExtractDependencies(content),
		})
	}

	return components
}

// classifyFile infers a component type and target directory from filename
// substrings. Server-ish names become services, data-ish names become
// models, everything else lands with the frontend components.
func classifyFile(name string) (kind, dir string) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "server"), strings.Contains(lower, "routes"), strings.Contains(lower, "controller"):
		return spec.TypeService, "src/server"
	case strings.Contains(lower, "model"), strings.Contains(lower, "interface"), strings.Contains(lower, "schema"):
		return spec.TypeModel, "src/models"
	case strings.Contains(lower, "config"):
		return spec.TypeConfig, "src/config"
	case strings.Contains(lower, "util"), strings.Contains(lower, "helper"):
		return spec.TypeUtil, "src/utils"
	case strings.HasSuffix(lower, ".css"):
		return spec.TypeConfig, "src/styles"
	default:
		return spec.TypeComponent, "src/components"
	}
}

// ComponentPath returns the canonical path for a component generated from a
// planned specification entry (the single-file case).
func ComponentPath(name, kind, framework string) string {
	ext := ".jsx"
	if strings.EqualFold(framework, "vue") {
		ext = ".vue"
	}
	switch strings.ToLower(kind) {
	case "server", "service", "routes", "controller", "api", "backend":
		return fmt.Sprintf("src/server/%s.js", name)
	case spec.TypeModel:
		return fmt.Sprintf("src/models/%s.js", name)
	case spec.TypeUtil:
		return fmt.Sprintf("src/utils/%s.js", name)
	case spec.TypeConfig:
		return fmt.Sprintf("src/config/%s.js", name)
	case spec.TypePage:
		return fmt.Sprintf("src/pages/%s%s", name, ext)
	default:
		return fmt.Sprintf("src/components/%s%s", name, ext)
	}
}
