// Package parse turns model output into typed phase results. Each phase has one parser
// that owns its extraction and fallback policy.
package parse

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type Kind string

const (
	RawText     Kind = "raw_text"
	ParsedJSON  Kind = "parsed_json"
	ParsedTable Kind = "parsed_table"
)

// Result carries the parsed value with the raw text it came from. Degraded is set when
// Value was synthesized by a fallback rather than read from Raw.
type Result[T any] struct {
	Kind     Kind
	Value    T
	Raw      string
	Degraded bool
}

func parsed[T any](kind Kind, v T, raw string) Result[T] {
	return Result[T]{Kind: kind, Value: v, Raw: raw}
}

func degraded[T any](v T, raw string) Result[T] {
	return Result[T]{Kind: RawText, Value: v, Raw: raw, Degraded: true}
}

var errNoJSON = errors.New("no JSON object found in model output")

func decodeJSON[T any](raw string) (T, error) {
	var v T
	body, ok := ExtractJSON(raw)
	if !ok {
		return v, errNoJSON
	}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return v, err
	}
	return v, nil
}

// Text accepts a JSON string, number, or list of strings; lists are joined by newlines.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = []byte(strings.TrimSpace(string(b)))
	if len(b) == 0 || string(b) == "null" {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var items []Text
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if s := strings.TrimSpace(string(it)); s != "" {
				parts = append(parts, s)
			}
		}
		*t = Text(strings.Join(parts, "\n"))
	default:
		*t = Text(string(b))
	}
	return nil
}

func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Int accepts a JSON number or a numeric string.
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Int(int(f))
	return nil
}
