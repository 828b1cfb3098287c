package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/trainforge-backend/internal/platform/apierr"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"fenced json", "Here you go:\n```json\n{\"a\": 1}\n```\nThanks", `{"a": 1}`, true},
		{"fenced no lang", "```\n{\"a\": 2}\n```", `{"a": 2}`, true},
		{"skips non-json fence", "```python\nprint(1)\n```\n```json\n{\"a\": 3}\n```", `{"a": 3}`, true},
		{"bare object in prose", `The result is {"a": {"b": "}"}} as requested.`, `{"a": {"b": "}"}}`, true},
		{"unbalanced", `{"a": 1`, "", false},
		{"none", "no json here", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSON(tc.raw)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseDebriefStructured(t *testing.T) {
	raw := "```json\n" + `{"summary":"s","key_findings":["k"],"alternatives":[{"title":"A"},{"title":"B"}],"recommended":1}` + "\n```"
	res := ParseDebrief(raw)
	require.Equal(t, ParsedJSON, res.Kind)
	require.False(t, res.Degraded)
	require.Len(t, res.Value.Alternatives, 2)
	require.Equal(t, Int(1), res.Value.Recommended)
}

func TestParseDebriefFallsBackToGenericAlternatives(t *testing.T) {
	raw := "The research suggests a blended approach works best."
	res := ParseDebrief(raw)
	require.Equal(t, RawText, res.Kind)
	require.True(t, res.Degraded)
	require.True(t, res.Value.Degraded)
	require.Len(t, res.Value.Alternatives, 3)
	require.Equal(t, raw, res.Value.Summary)
	require.Equal(t, ParseDebrief(raw).Value.Alternatives, res.Value.Alternatives)
}

func TestParseValidationGate(t *testing.T) {
	critical := ParseValidation(`{"gaps":[{"topic":"t","severity":"critical"},{"topic":"m","severity":"minor"}]}`)
	require.True(t, critical.Value.NeedsDeepening())
	require.Len(t, critical.Value.FlaggedGaps(), 1)

	v := critical.Value
	v.MarkResolved()
	require.True(t, v.Gaps[0].Resolved)
	require.False(t, v.Gaps[1].Resolved)
	require.True(t, v.Deepened)

	clean := ParseValidation(`{"contradictions":[],"gaps":[{"topic":"m","severity":"minor"}],"alternative_viewpoints":[]}`)
	require.False(t, clean.Value.NeedsDeepening())

	viewpoints := ParseValidation(`{"alternative_viewpoints":["coaching instead of courses"]}`)
	require.True(t, viewpoints.Value.NeedsDeepening())
	require.Equal(t, "coaching instead of courses", viewpoints.Value.AlternativeViewpoints[0].Viewpoint)

	garbage := ParseValidation("looks fine to me")
	require.True(t, garbage.Degraded)
	require.False(t, garbage.Value.NeedsDeepening())
}

func TestParseReviewAndFactCheckKeepRawNotes(t *testing.T) {
	r := ParseReview(`{"compliant":false,"score":"72","notes":"weak hook","issues":[{"criterion":"Hook","issue":"flat"}]}`)
	require.False(t, r.Degraded)
	require.Equal(t, Int(72), r.Value.Score)

	r = ParseReview("Solid article overall.")
	require.True(t, r.Degraded)
	require.Equal(t, "Solid article overall.", r.Value.Notes)

	f := ParseFactCheck("All claims verified.")
	require.True(t, f.Degraded)
	require.Equal(t, "All claims verified.", f.Value.Notes)
}

func TestParseQuiz(t *testing.T) {
	raw := `{"title":"Check","questions":[
		{"question":"Q1","options":["a","b","c","d"],"correct_index":2},
		{"question":"Q2","options":["a","b"],"correct_index":5},
		{"question":"","options":["a","b"]}]}`
	res, err := ParseQuiz(raw)
	require.NoError(t, err)
	require.Len(t, res.Value.Questions, 1)
	require.Equal(t, Int(2), res.Value.Questions[0].CorrectIndex)

	_, err = ParseQuiz("no quiz")
	require.Equal(t, apierr.KindParse, apierr.KindOf(err))
	require.Equal(t, "quiz_parse_failed", apierr.CodeOf(err))
}

func TestParseBrief(t *testing.T) {
	raw := "```json\n" + `{"name":"Onboarding","objectives":["Faster ramp","Fewer escalations"],"quiz_question_count":"8"}` + "\n```"
	res, err := ParseBrief(raw)
	require.NoError(t, err)
	require.Equal(t, "Onboarding", res.Value.Name.String())
	require.Equal(t, "Faster ramp\nFewer escalations", res.Value.Objectives.String())
	require.Equal(t, Int(8), res.Value.QuizQuestionCount)
	require.Equal(t, "en", res.Value.Language.String())
	require.Equal(t, "all", res.Value.Deliverables.String())
}

func TestParseBriefFailureCarriesPreview(t *testing.T) {
	raw := strings.Repeat("not json ", 100)
	_, err := ParseBrief(raw)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	require.Equal(t, "brief_parse_failed", ae.Code)
	require.Equal(t, apierr.KindParse, ae.Kind)
	require.Equal(t, apierr.PreviewLimit+1, len([]rune(ae.Preview)))
	require.True(t, strings.HasPrefix(raw, strings.TrimSuffix(ae.Preview, "…")))
}
