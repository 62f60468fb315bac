// Package archive exports a generation result as a downloadable ZIP. Files
// are staged on an in-memory afero filesystem so nothing touches disk.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/orusmind/orus-builder/internal/spec"
)

// BuildZip writes every generated component (and its test file, when
// present) into a ZIP archive and returns the raw bytes.
func BuildZip(result *spec.GenerationResult) ([]byte, error) {
	fs := afero.NewMemMapFs()

	for _, c := range result.Components {
		path := c.Path
		if path == "" {
			path = "src/" + c.Name + ".js"
		}
		if err := writeFile(fs, path, c.Code); err != nil {
			return nil, err
		}
		if c.Tests != "" {
			if err := writeFile(fs, testPath(path), c.Tests); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	err := afero.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == "." || info.IsDir() {
			return nil
		}
		w, err := zw.Create(path)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", path, err)
		}
		f, err := fs.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		if _, err := io.Copy(w, f); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk generated files: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFile(fs afero.Fs, path, content string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func testPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".test" + ext
}
