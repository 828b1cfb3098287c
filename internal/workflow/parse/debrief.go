package parse

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

type Alternative struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Approach    string   `json:"approach"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

type Debrief struct {
	Summary      string        `json:"summary"`
	KeyFindings  []string      `json:"key_findings"`
	Alternatives []Alternative `json:"alternatives"`
	Recommended  Int           `json:"recommended"`
	// Degraded marks a debrief reconstructed from unstructured output.
	Degraded bool `json:"degraded,omitempty"`
}

const summaryFallbackLimit = 2000

// FallbackAlternatives is offered when the model's debrief cannot be read.
func FallbackAlternatives() []Alternative {
	return []Alternative{
		{
			Title:       "Foundations program",
			Description: "A structured introduction that builds shared vocabulary before practice.",
			Approach:    "Concept-first sessions followed by short applied exercises.",
			Pros:        []string{"Low entry barrier", "Consistent baseline across the audience"},
			Cons:        []string{"Slower to reach advanced practice"},
		},
		{
			Title:       "Practice-led program",
			Description: "Scenario-driven sessions built around the audience's daily work.",
			Approach:    "Each session starts from a realistic case and extracts the principles.",
			Pros:        []string{"High transfer to the job", "Engaging for experienced learners"},
			Cons:        []string{"Assumes some prior knowledge"},
		},
		{
			Title:       "Blended program",
			Description: "Alternates short theory pieces with guided practice and reflection.",
			Approach:    "Theory, worked example and exercise in every session.",
			Pros:        []string{"Balances depth and application"},
			Cons:        []string{"Longer sessions"},
		},
	}
}

// ParseDebrief never fails: unreadable output becomes a degraded debrief whose summary is
// the raw text and whose alternatives are the generic fallback set.
func ParseDebrief(raw string) Result[Debrief] {
	d, err := decodeJSON[Debrief](raw)
	if err == nil && (strings.TrimSpace(d.Summary) != "" || len(d.Alternatives) > 0) {
		if len(d.Alternatives) == 0 {
			d.Alternatives = FallbackAlternatives()
			d.Degraded = true
		}
		if int(d.Recommended) < 0 || int(d.Recommended) >= len(d.Alternatives) {
			d.Recommended = 0
		}
		if d.Degraded {
			return Result[Debrief]{Kind: ParsedJSON, Value: d, Raw: raw, Degraded: true}
		}
		return parsed(ParsedJSON, d, raw)
	}
	return degraded(Debrief{
		Summary:      apierr.Truncate(stripFences(raw), summaryFallbackLimit),
		Alternatives: FallbackAlternatives(),
		Degraded:     true,
	}, raw)
}

// Encode renders the debrief as the JSON stored on the step and served to clients.
func (d Debrief) Encode() string {
	b, _ := json.Marshal(d)
	return string(b)
}

func stripFences(s string) string {
	s = fenceRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
