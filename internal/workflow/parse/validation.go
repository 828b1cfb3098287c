package parse

import (
	"encoding/json"
	"strings"
)

const (
	SeverityCritical  = "critical"
	SeverityImportant = "important"
	SeverityMinor     = "minor"
)

type Contradiction struct {
	Description string `json:"description"`
}

func (c *Contradiction) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		c.Description = s
		return nil
	}
	type plain Contradiction
	return json.Unmarshal(b, (*plain)(c))
}

type Viewpoint struct {
	Viewpoint string `json:"viewpoint"`
	Rationale string `json:"rationale,omitempty"`
}

func (v *Viewpoint) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		v.Viewpoint = s
		return nil
	}
	type plain Viewpoint
	return json.Unmarshal(b, (*plain)(v))
}

type Gap struct {
	Topic       string `json:"topic"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Resolved    bool   `json:"resolved"`
}

// Flagged reports whether the gap warrants a deepening pass.
func (g Gap) Flagged() bool {
	switch strings.ToLower(strings.TrimSpace(g.Severity)) {
	case SeverityCritical, SeverityImportant:
		return true
	}
	return false
}

type Validation struct {
	Contradictions        []Contradiction `json:"contradictions"`
	Gaps                  []Gap           `json:"gaps"`
	AlternativeViewpoints []Viewpoint     `json:"alternative_viewpoints"`
	OverallQuality        string          `json:"overall_quality"`
	Deepened              bool            `json:"deepened"`
}

// NeedsDeepening is true when any gap is flagged or any alternative viewpoint is missing.
func (v Validation) NeedsDeepening() bool {
	if len(v.AlternativeViewpoints) > 0 {
		return true
	}
	for _, g := range v.Gaps {
		if g.Flagged() {
			return true
		}
	}
	return false
}

func (v Validation) FlaggedGaps() []Gap {
	var out []Gap
	for _, g := range v.Gaps {
		if g.Flagged() {
			out = append(out, g)
		}
	}
	return out
}

// MarkResolved records that a deepening pass addressed every flagged gap.
func (v *Validation) MarkResolved() {
	for i := range v.Gaps {
		if v.Gaps[i].Flagged() {
			v.Gaps[i].Resolved = true
		}
	}
	v.Deepened = true
}

func (v Validation) Encode() string {
	b, _ := json.Marshal(v)
	return string(b)
}

// ParseValidation falls back to an empty validation, which requests no deepening.
func ParseValidation(raw string) Result[Validation] {
	v, err := decodeJSON[Validation](raw)
	if err != nil {
		return degraded(Validation{}, raw)
	}
	return parsed(ParsedJSON, v, raw)
}
