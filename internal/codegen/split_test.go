package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orusmind/orus-builder/internal/spec"
)

func TestSplitMultiFile(t *testing.T) {
	t.Run("returns nil without delimiters", func(t *testing.T) {
		assert.Nil(t, SplitMultiFile("const a = 1;\nexport default a;"))
	})

	t.Run("splits on filename comments", func(t *testing.T) {
		raw := `// server.js
import express from 'express';
const app = express();

// models/user.js
export const userSchema = {};

// Header.jsx
function Header() { return null; }
`
		parts := SplitMultiFile(raw)
		require.Len(t, parts, 3)

		assert.Equal(t, "server", parts[0].Name)
		assert.Equal(t, spec.TypeService, parts[0].Type)
		assert.Equal(t, "src/server/server.js", parts[0].Path)
		assert.Contains(t, parts[0].Code, "express()")
		assert.Equal(t, []string{"express"}, parts[0].Dependencies)

		assert.Equal(t, "user", parts[1].Name)
		assert.Equal(t, spec.TypeModel, parts[1].Type)
		assert.Equal(t, "src/models/user.js", parts[1].Path)

		assert.Equal(t, "Header", parts[2].Name)
		assert.Equal(t, spec.TypeComponent, parts[2].Type)
		assert.Equal(t, "src/components/Header.jsx", parts[2].Path)
	})

	t.Run("angle-bracketed delimiters are accepted", func(t *testing.T) {
		raw := "// <config.json>\n{\"name\": \"demo\"}\n"
		parts := SplitMultiFile(raw)
		require.Len(t, parts, 1)
		assert.Equal(t, "config", parts[0].Name)
		assert.Equal(t, "src/config/config.json", parts[0].Path)
	})

	t.Run("empty segments are dropped", func(t *testing.T) {
		raw := "// a.js\n\n// b.js\nconst b = 2;\n"
		parts := SplitMultiFile(raw)
		require.Len(t, parts, 1)
		assert.Equal(t, "b", parts[0].Name)
	})

	t.Run("records line and complexity metadata", func(t *testing.T) {
		raw := "// util.js\nfunction f(a) {\n  if (a) { return 1; }\n  return 0;\n}\n"
		parts := SplitMultiFile(raw)
		require.Len(t, parts, 1)
		assert.Equal(t, spec.TypeUtil, parts[0].Type)
		assert.Equal(t, 4, parts[0].Metadata.Lines)
		assert.Equal(t, 2, parts[0].Metadata.Complexity)
	})
}

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name     string
		wantKind string
		wantDir  string
	}{
		{"server.js", spec.TypeService, "src/server"},
		{"apiRoutes.js", spec.TypeService, "src/server"},
		{"userController.js", spec.TypeService, "src/server"},
		{"user.model.js", spec.TypeModel, "src/models"},
		{"schema.ts", spec.TypeModel, "src/models"},
		{"config.json", spec.TypeConfig, "src/config"},
		{"dateUtils.js", spec.TypeUtil, "src/utils"},
		{"main.css", spec.TypeConfig, "src/styles"},
		{"Header.jsx", spec.TypeComponent, "src/components"},
	}

	for _, tt := range tests {
		kind, dir := classifyFile(tt.name)
		assert.Equal(t, tt.wantKind, kind, tt.name)
		assert.Equal(t, tt.wantDir, dir, tt.name)
	}
}

func TestComponentPath(t *testing.T) {
	assert.Equal(t, "src/components/Header.jsx", ComponentPath("Header", "component", "react"))
	assert.Equal(t, "src/components/Header.vue", ComponentPath("Header", "component", "Vue"))
	assert.Equal(t, "src/pages/Home.jsx", ComponentPath("Home", "page", "react"))
	assert.Equal(t, "src/server/api.js", ComponentPath("api", "service", "react"))
	assert.Equal(t, "src/models/user.js", ComponentPath("user", "model", "react"))
	assert.Equal(t, "src/utils/format.js", ComponentPath("format", "util", "react"))
}
