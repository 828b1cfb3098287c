package agents

import "github.com/yungbote/trainforge-backend/internal/llm"

type ModelConfig struct {
	Provider    llm.Provider `json:"provider"`
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
}

const (
	sonnet    = "claude-sonnet-4-5"
	haiku     = "claude-haiku-4-5"
	gpt41     = "gpt-4.1"
	gpt41Mini = "gpt-4.1-mini"
	o3Mini    = "o3-mini"
	o4Mini    = "o4-mini"
)

func anthropicModel(model string, maxTokens int, temp float64) ModelConfig {
	return ModelConfig{Provider: llm.ProviderAnthropic, Model: model, MaxTokens: maxTokens, Temperature: llm.Float(temp)}
}

func openAIModel(model string, maxTokens int, temp float64) ModelConfig {
	return ModelConfig{Provider: llm.ProviderOpenAI, Model: model, MaxTokens: maxTokens, Temperature: llm.Float(temp)}
}

var defaultModel = anthropicModel(sonnet, 4096, 0.7)

var modelTable = map[string]ModelConfig{
	BriefParser:           openAIModel(gpt41Mini, 2000, 0.1),
	Interviewer:           anthropicModel(haiku, 1000, 0.7),
	Researcher:            anthropicModel(sonnet, 8000, 0.5),
	ResearchValidator:     openAIModel(o3Mini, 4000, 0.2),
	DebriefWriter:         anthropicModel(sonnet, 6000, 0.7),
	SourceAnalyst:         anthropicModel(sonnet, 6000, 0.3),
	ProgramArchitect:      anthropicModel(sonnet, 4000, 0.6),
	InstructionalDesigner: anthropicModel(sonnet, 6000, 0.6),
	ActivityDesigner:      anthropicModel(sonnet, 6000, 0.7),
	MatrixAuthor:          anthropicModel(sonnet, 8000, 0.4),
	ProgramDesigner:       anthropicModel(sonnet, 12000, 0.6),
	ArticleWriter:         anthropicModel(sonnet, 8000, 0.7),
	HistReviewer:          openAIModel(gpt41, 3000, 0.2),
	FactChecker:           openAIModel(o4Mini, 4000, 0.1),
	VideoNarrator:         anthropicModel(sonnet, 6000, 0.7),
	QuizDesigner:          openAIModel(gpt41, 4000, 0.4),
	FeedbackResponder:     anthropicModel(haiku, 800, 0.5),
	DebriefAssistant:      anthropicModel(haiku, 1500, 0.5),
}

// batchTable swaps in cheaper models for bulk sibling generation.
var batchTable = map[string]ModelConfig{
	ArticleWriter: anthropicModel(haiku, 8000, 0.7),
	HistReviewer:  openAIModel(gpt41Mini, 3000, 0.2),
	FactChecker:   openAIModel(o3Mini, 4000, 0.1),
	VideoNarrator: anthropicModel(haiku, 6000, 0.7),
	QuizDesigner:  openAIModel(gpt41Mini, 4000, 0.4),
}
