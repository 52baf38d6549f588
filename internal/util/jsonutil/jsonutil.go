package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyReply is returned when a model reply is blank after fence stripping.
var ErrEmptyReply = errors.New("jsonutil: empty reply")

// MarshalIndentNoEscape encodes v as indented JSON without HTML escaping of
// <, > and &, so source code embedded in prompts stays readable.
func MarshalIndentNoEscape(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalFlex tries to unmarshal JSON bytes into v with best effort:
// a direct unmarshal first, then a second attempt after unwrapping a reply
// that arrived as a quoted JSON string ("{\"issues\": []}").
func UnmarshalFlex(raw []byte, v any) error {
	err := json.Unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return err
	}
	return json.Unmarshal([]byte(s), v)
}

// ExtractStringList strips fences from a model reply, parses it as a JSON
// object and returns the string list stored under key. A missing key yields
// an empty list. Non-string elements are rendered with fmt.Sprint.
func ExtractStringList(raw string, key string) ([]string, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, ErrEmptyReply
	}
	var obj map[string]any
	if err := UnmarshalFlex([]byte(body), &obj); err != nil {
		return nil, fmt.Errorf("jsonutil: parse reply: %w", err)
	}
	v, ok := obj[key]
	if !ok || v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonutil: %q is %T, want array", key, v)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(it))
	}
	return out, nil
}
