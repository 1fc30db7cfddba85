package mindmap

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Serialize encodes the document as canonical JSON: two-space indentation,
// fields in schema order, no HTML escaping and no trailing newline. The
// download artifact is exactly these bytes.
func Serialize(d *Document) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("serializing document: nil document")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Deserialize decodes bytes produced by Serialize (or any conforming file).
// It is Validate under another name: nothing is adopted without validation.
func Deserialize(data []byte) (*Document, error) {
	return Validate(data)
}
