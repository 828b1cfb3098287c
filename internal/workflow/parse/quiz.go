package parse

import (
	"fmt"
	"strings"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex Int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

type Quiz struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// ParseQuiz has no fallback; a quiz with unusable questions is rejected.
func ParseQuiz(raw string) (Result[Quiz], error) {
	q, err := decodeJSON[Quiz](raw)
	if err != nil {
		return Result[Quiz]{Kind: RawText, Raw: raw}, apierr.Parse("quiz_parse_failed", fmt.Errorf("quiz: %w", err), raw)
	}
	kept := q.Questions[:0]
	for _, qq := range q.Questions {
		if strings.TrimSpace(qq.Question) == "" || len(qq.Options) < 2 {
			continue
		}
		if int(qq.CorrectIndex) < 0 || int(qq.CorrectIndex) >= len(qq.Options) {
			continue
		}
		kept = append(kept, qq)
	}
	q.Questions = kept
	if len(q.Questions) == 0 {
		return Result[Quiz]{Kind: RawText, Raw: raw}, apierr.Parse("quiz_parse_failed", fmt.Errorf("quiz has no usable questions"), raw)
	}
	return parsed(ParsedJSON, q, raw), nil
}
