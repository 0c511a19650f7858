package client

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Body is a decoded JSON response body. It holds validated JSON and is
// read with dotted paths (Get) or decoded into Go values (Decode).
type Body json.RawMessage

// EmptyBody returns the neutral result, an empty JSON object.
func EmptyBody() Body {
	return Body("{}")
}

func decodeBody(raw []byte) (Body, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return EmptyBody(), nil
	}
	if !json.Valid(trimmed) {
		return nil, &InvalidDataError{Reason: "response body is not valid JSON", Raw: raw}
	}
	return Body(trimmed), nil
}

// IsEmpty reports whether the body carries no data: nothing, null, {} or [].
func (b Body) IsEmpty() bool {
	switch string(bytes.Join(bytes.Fields(b), nil)) {
	case "", "null", "{}", "[]":
		return true
	default:
		return false
	}
}

// Get returns the value at a dotted path such as "data.total" or "data.data.0.id".
func (b Body) Get(path string) gjson.Result {
	return gjson.GetBytes(b, path)
}

// Decode unmarshals the body into v.
func (b Body) Decode(v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return &InvalidDataError{Reason: "decode body", Raw: b, Err: err}
	}
	return nil
}

// Map decodes the body as a generic JSON object. Non-object bodies yield an empty map.
func (b Body) Map() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(b, &out)
	return out
}

// MarshalJSON embeds the body as raw JSON.
func (b Body) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

// UnmarshalJSON stores a copy of data.
func (b *Body) UnmarshalJSON(data []byte) error {
	*b = append((*b)[0:0], data...)
	return nil
}
