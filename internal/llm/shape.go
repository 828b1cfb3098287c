package llm

import "strings"

type Family string

const (
	FamilyAnthropic       Family = "anthropic"
	FamilyOpenAIStandard  Family = "openai_standard"
	FamilyOpenAIReasoning Family = "openai_reasoning"
)

// Shape captures the per-family request contract.
type Shape struct {
	Family Family
	// TokenParam is the wire name of the output budget field.
	TokenParam string
	// Temperature is false for families that reject a custom temperature.
	Temperature bool
	// SystemRole is the message role carrying the system instruction; empty means a top-level field.
	SystemRole string
	Streaming  bool
}

var reasoningSeries = []string{"o1", "o3", "o4"}

func ShapeFor(provider Provider, model string) Shape {
	m := strings.ToLower(strings.TrimSpace(model))
	if provider == ProviderAnthropic {
		return Shape{Family: FamilyAnthropic, TokenParam: "max_tokens", Temperature: true, Streaming: true}
	}
	if isReasoningModel(m) {
		return Shape{
			Family:      FamilyOpenAIReasoning,
			TokenParam:  "max_completion_tokens",
			Temperature: false,
			SystemRole:  "developer",
			// o1 rejects stream=true.
			Streaming: !inSeries(m, "o1"),
		}
	}
	return Shape{Family: FamilyOpenAIStandard, TokenParam: "max_tokens", Temperature: true, SystemRole: "system", Streaming: true}
}

func isReasoningModel(m string) bool {
	for _, s := range reasoningSeries {
		if inSeries(m, s) {
			return true
		}
	}
	return strings.HasPrefix(m, "gpt-5")
}

func inSeries(m, series string) bool {
	return m == series || strings.HasPrefix(m, series+"-")
}
