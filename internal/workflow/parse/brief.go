package parse

import (
	"fmt"
	"strings"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

type Brief struct {
	Name              Text `json:"name"`
	Objectives        Text `json:"objectives"`
	Audience          Text `json:"audience"`
	Outcomes          Text `json:"outcomes"`
	Constraints       Text `json:"constraints"`
	Angle             Text `json:"angle"`
	Language          Text `json:"language"`
	Deliverables      Text `json:"deliverables"`
	QuizQuestionCount Int  `json:"quiz_question_count"`
}

// ParseBrief has no safe fallback, so failures carry a preview of the raw output.
func ParseBrief(raw string) (Result[Brief], error) {
	b, err := decodeJSON[Brief](raw)
	if err != nil {
		return Result[Brief]{Kind: RawText, Raw: raw}, apierr.Parse("brief_parse_failed", fmt.Errorf("brief: %w", err), raw)
	}
	if b.Name.String() == "" && b.Objectives.String() == "" {
		return Result[Brief]{Kind: RawText, Raw: raw}, apierr.Parse("brief_parse_failed", fmt.Errorf("brief has neither name nor objectives"), raw)
	}
	if b.Language.String() == "" {
		b.Language = "en"
	}
	if strings.TrimSpace(string(b.Deliverables)) == "" {
		b.Deliverables = "all"
	}
	if b.QuizQuestionCount <= 0 {
		b.QuizQuestionCount = 5
	}
	return parsed(ParsedJSON, b, raw), nil
}
