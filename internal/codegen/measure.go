package codegen

import (
	"regexp"
	"strings"
)

var (
	importRe = regexp.MustCompile(`(?m)^\s*import\s+(?:[\w$]+|\*\s+as\s+[\w$]+|\{[^}]*\})?\s*(?:,\s*\{[^}]*\})?\s*(?:from\s+)?['"]([^'"]+)['"]`)
	branchRe = regexp.MustCompile(`\b(if|else|for|while|case|catch)\b|&&|\|\||\?`)
)

// ExtractDependencies returns the module names referenced by import
// statements, deduplicated in first-seen order.
func ExtractDependencies(code string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, m := range importRe.FindAllStringSubmatch(code, -1) {
		name := m[1]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, name)
	}
	return deps
}

// Complexity is a McCabe-like heuristic: one plus the number of branch
// points in the source. It counts tokens, not parsed nodes, so string
// literals containing keywords inflate the score slightly.
func Complexity(code string) int {
	return 1 + len(branchRe.FindAllString(code, -1))
}

// CountLines counts physical lines, ignoring a single trailing newline.
func CountLines(code string) int {
	trimmed := strings.TrimRight(code, "\n")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "\n") + 1
}
