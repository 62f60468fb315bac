// Package codegen post-processes raw model output into files the in-browser
// preview can run. The transforms are ordered regex substitutions, not an
// AST pass, and are best-effort: input the regexes do not match passes
// through unchanged.
package codegen

import (
	"regexp"
	"strings"
)

var (
	fenceOpenRe   = regexp.MustCompile("(?m)^```[a-zA-Z]*\\s*$")
	hookGenericRe = regexp.MustCompile(`\b(useState|useRef|useMemo|useCallback|useReducer|useContext)<[^<>]*(?:<[^<>]*>[^<>]*)?>\(`)
	exportDeclRe  = regexp.MustCompile(`(?m)^export\s+(interface|type|const|function|class|let|var)\b`)
	asAssertionRe = regexp.MustCompile(`([)\]\w'"])\s+as\s+[A-Z][\w.]*(\[\])?(<[^<>]*>)?`)
	returnTypeRe  = regexp.MustCompile(`\)\s*:\s*(JSX\.Element|React\.(FC|ReactNode|ReactElement)(<[^<>]*>)?|void|string|number|boolean)\s*(=>|\{)`)
)

// Repair strips TypeScript-only syntax from raw model output so the result
// is runnable by the lightweight in-browser transpiler. Markdown fences are
// removed first, then generic type arguments on known hook calls, `export`
// keywords on declarations (a trailing `export default` survives) and
// trailing `as Foo` assertions. Clean JavaScript passes through unchanged:
// namespace imports (`import * as React`) and comment lines carry `as` with
// a different meaning and are left alone.
//
// Repair is not guaranteed idempotent: deeply nested generics can need more
// passes than the single substitution performs.
func Repair(raw string) string {
	code := fenceOpenRe.ReplaceAllString(raw, "")
	code = hookGenericRe.ReplaceAllString(code, "$1(")
	code = exportDeclRe.ReplaceAllString(code, "$1")
	code = stripAsAssertions(code)
	code = returnTypeRe.ReplaceAllString(code, ") $4")
	return strings.TrimSpace(code) + "\n"
}

// stripAsAssertions removes `as Foo` type assertions line by line. The
// regex requires an expression-ending token before the `as`, and import
// and comment lines are skipped entirely so `import * as React` and prose
// survive.
func stripAsAssertions(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "//") {
			continue
		}
		lines[i] = asAssertionRe.ReplaceAllString(line, "$1")
	}
	return strings.Join(lines, "\n")
}
