package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orusmind/orus-builder/internal/spec"
)

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = string(content)
	}
	return entries
}

func TestBuildZip(t *testing.T) {
	result := &spec.GenerationResult{
		Components: []spec.GeneratedComponent{
			{
				Name:  "App",
				Path:  "src/components/App.jsx",
				Code:  "export default function App() {}\n",
				Tests: "test('renders', () => {});\n",
			},
			{
				Name: "server",
				Path: "src/server/server.js",
				Code: "const express = require('express');\n",
			},
		},
	}

	data, err := BuildZip(result)
	require.NoError(t, err)

	entries := readZip(t, data)
	require.Len(t, entries, 3)
	assert.Equal(t, "export default function App() {}\n", entries["src/components/App.jsx"])
	assert.Equal(t, "test('renders', () => {});\n", entries["src/components/App.test.jsx"])
	assert.Contains(t, entries, "src/server/server.js")
}

func TestBuildZip_DefaultsMissingPath(t *testing.T) {
	result := &spec.GenerationResult{
		Components: []spec.GeneratedComponent{
			{Name: "Orphan", Code: "// no path\n"},
		},
	}

	data, err := BuildZip(result)
	require.NoError(t, err)

	entries := readZip(t, data)
	assert.Contains(t, entries, "src/Orphan.js")
}

func TestBuildZip_EmptyResult(t *testing.T) {
	data, err := BuildZip(&spec.GenerationResult{})
	require.NoError(t, err)
	assert.Empty(t, readZip(t, data))
}

func TestTestPath(t *testing.T) {
	assert.Equal(t, "src/components/App.test.jsx", testPath("src/components/App.jsx"))
	assert.Equal(t, "src/server/server.test.js", testPath("src/server/server.js"))
}
