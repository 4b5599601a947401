package tutor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
)

func TestParseQuestions(t *testing.T) {
	text := `Here are some questions:
1. What do you already know about Go?
2. Have you used goroutines?
- Which projects interest you?
* Do you prefer videos or books?
This line is not a question.

`
	got := ParseQuestions(text)
	assert.Equal(t, []string{
		"What do you already know about Go?",
		"Have you used goroutines?",
		"Which projects interest you?",
		"Do you prefer videos or books?",
	}, got)
}

func TestTemplateQuestions(t *testing.T) {
	tests := []struct {
		request string
		first   string
	}{
		{"Python for data analysis", "What is your current level of programming experience?"},
		{"machine learning", "What is your background in AI and statistics?"},
		{"ML basics", "What is your background in AI and statistics?"},
		{"web development", "Are you more interested in frontend or backend development?"},
		{"HTML", "What is your current knowledge level in HTML?"},
		{"cooking", "What is your current knowledge level in cooking?"},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			got := TemplateQuestions(tt.request)
			require.Len(t, got, 4)
			assert.Equal(t, tt.first, got[0])
		})
	}
}

func TestAssessWithoutModelUsesTemplates(t *testing.T) {
	a := NewAssessor(nil, zerolog.Nop())
	got, err := a.Assess(context.Background(), "Python")
	require.NoError(t, err)
	require.Len(t, got.Questions, 6)
	assert.Equal(t, "Have you used any programming languages before Python?", got.Questions[1])
	assert.Equal(t, commonQuestions, got.Questions[4:])
}

func TestAssessEmptyRequestRejected(t *testing.T) {
	a := NewAssessor(nil, zerolog.Nop())
	_, err := a.Assess(context.Background(), "   ")
	var rej *chat.RejectedError
	assert.True(t, errors.As(err, &rej))
}

func TestAssessStructuredQuestions(t *testing.T) {
	questions := []string{
		"What Go have you written so far?",
		"Have you used channels before?",
		"What do you want to build with Go?",
		"How comfortable are you with pointers?",
	}
	p := llm.NewMockProvider(llm.JSONResponse(map[string]any{"questions": questions}))
	a := NewAssessor(p, zerolog.Nop())

	got, err := a.Assess(context.Background(), "Go")
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, questions...), commonQuestions...), got.Questions)

	require.Equal(t, 1, p.CallCount())
	req := p.Calls()[0]
	require.NotNil(t, req.Schema)
	assert.Equal(t, "assessment-questions", req.Schema.Name)
	assert.Contains(t, req.Messages[0].Content, `"Go"`)
}

func TestAssessTooFewQuestionsFallsBack(t *testing.T) {
	// Violates minItems, so the structured call fails and the raw text is
	// parsed instead. One question is not enough.
	p := llm.NewMockProvider(llm.JSONResponse(map[string]any{"questions": []string{"Why?"}}))
	a := NewAssessor(p, zerolog.Nop())

	got, err := a.Assess(context.Background(), "web design")
	require.NoError(t, err)
	assert.Equal(t, "Are you more interested in frontend or backend development?", got.Questions[0])
	assert.Len(t, got.Questions, 6)
}

func TestAssessPlainTextResponse(t *testing.T) {
	p := llm.NewMockProvider(llm.MockResponse{Text: "1. What is Rust?\n2. Why Rust?\n3. Have you used C?\n4. What will you build?"})
	a := NewAssessor(p, zerolog.Nop())

	got, err := a.Assess(context.Background(), "Rust")
	require.NoError(t, err)
	assert.Equal(t, []string{"What is Rust?", "Why Rust?", "Have you used C?", "What will you build?"}, got.Questions[:4])
}

func TestAssessProviderDownUsesTemplates(t *testing.T) {
	p := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("dial tcp")}})
	a := NewAssessor(p, zerolog.Nop())

	got, err := a.Assess(context.Background(), "statistics")
	require.NoError(t, err)
	assert.Equal(t, "What is your current knowledge level in statistics?", got.Questions[0])
}

func TestAssessmentSchemaShape(t *testing.T) {
	def := assessmentSchema.Definition
	assert.Equal(t, "object", def["type"])
	assert.Equal(t, false, def["additionalProperties"])
	props, ok := def["properties"].(map[string]any)
	require.True(t, ok)
	q, ok := props["questions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", q["type"])
	assert.EqualValues(t, 3, q["minItems"])
	assert.NotContains(t, def, "$schema")
}
