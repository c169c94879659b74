package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into \u003c, etc.
// Report text carries company names such as "R&D" that should stay readable.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Indent pretty-prints raw JSON. Invalid input is returned unchanged with the
// parse error.
func Indent(raw []byte, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", indent); err != nil {
		return raw, err
	}
	return buf.Bytes(), nil
}
