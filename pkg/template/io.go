package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/docdesigner/pkg/errors"
)

// ImportSuffix is appended to the name of every imported template.
const ImportSuffix = " (Imported)"

// WriteJSON encodes t as a standalone, indented JSON document.
// The document carries the full layout, page settings and styles and no
// reference to any other template.
func WriteJSON(t *Template, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes t to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(t *Template, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}

var slugRe = regexp.MustCompile(`\s+`)

// ExportFilename suggests a download filename for t,
// e.g. "invoice-template-modern-blue.json".
func ExportFilename(t *Template) string {
	slug := strings.ToLower(slugRe.ReplaceAllString(strings.TrimSpace(t.Name), "-"))
	slug = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '-'
		}
		return r
	}, slug)
	if slug == "" {
		slug = "untitled"
	}
	return "invoice-template-" + slug + ".json"
}

// importDoc mirrors the exported shape loosely. Timestamps and ids are
// ignored because an import always mints its own.
type importDoc struct {
	Name         string          `json:"name"`
	PageSettings *PageSettings   `json:"pageSettings"`
	Styles       Styles          `json:"styles"`
	Layout       json.RawMessage `json:"layout"`
}

// ReadJSON decodes an exported template document from r.
//
// Validation is deliberately minimal: the document must be a JSON object
// containing a "layout" array of module objects. The returned template keeps
// the source ids; callers mint fresh ones with [Template.Fork] before adding
// it to a store. Errors carry [errors.ErrCodeInvalidImport].
func ReadJSON(r io.Reader) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImport, err, "read document")
	}

	var doc importDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImport, err, "invalid JSON")
	}

	raw := bytes.TrimSpace(doc.Layout)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errors.New(errors.ErrCodeInvalidImport, "invalid template structure: missing layout array")
	}

	var layout []Module
	if err := json.Unmarshal(raw, &layout); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImport, err, "invalid layout")
	}

	t := &Template{
		Name:   doc.Name,
		Styles: doc.Styles,
		Layout: layout,
	}
	if doc.PageSettings != nil {
		t.PageSettings = *doc.PageSettings
	}
	return t, nil
}

// ImportJSON reads a template document from the file at path.
func ImportJSON(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
