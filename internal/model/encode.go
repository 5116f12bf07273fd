package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeJSON renders the document as indented JSON with a trailing newline.
// Key order follows struct field order and HTML escaping is disabled so the
// output diffs cleanly between runs.
func EncodeJSON(doc *LibraryDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding library document: %w", err)
	}
	return buf.Bytes(), nil
}
