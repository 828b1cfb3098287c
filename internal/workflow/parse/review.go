package parse

import "encoding/json"

type ReviewIssue struct {
	Criterion  string `json:"criterion"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

type Review struct {
	Compliant bool          `json:"compliant"`
	Score     Int           `json:"score"`
	Notes     string        `json:"notes"`
	Issues    []ReviewIssue `json:"issues"`
}

type Claim struct {
	Claim  string `json:"claim"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

type FactCheck struct {
	Verdict string  `json:"verdict"`
	Notes   string  `json:"notes"`
	Claims  []Claim `json:"claims"`
}

// ParseReview keeps the raw text as notes when the review is not valid JSON.
func ParseReview(raw string) Result[Review] {
	r, err := decodeJSON[Review](raw)
	if err != nil {
		return degraded(Review{Notes: stripFences(raw)}, raw)
	}
	return parsed(ParsedJSON, r, raw)
}

func ParseFactCheck(raw string) Result[FactCheck] {
	f, err := decodeJSON[FactCheck](raw)
	if err != nil {
		return degraded(FactCheck{Notes: stripFences(raw)}, raw)
	}
	return parsed(ParsedJSON, f, raw)
}

func (r Review) Encode() string {
	b, _ := json.Marshal(r)
	return string(b)
}

func (f FactCheck) Encode() string {
	b, _ := json.Marshal(f)
	return string(b)
}
