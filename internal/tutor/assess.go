package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"

	"github.com/aitutor/tutorchat/internal/chat"
	"github.com/aitutor/tutorchat/internal/llm"
)

// commonQuestions close every assessment.
var commonQuestions = []string{
	"How much time can you dedicate to learning per week?",
	"What is your preferred learning style (hands-on, reading, video tutorials)?",
}

const minQuestions = 3

const assessSystemPrompt = `You are an expert tutor who assesses a student's learning needs before building a learning path.
Write 4-5 assessment questions that:
- are specific to the subject
- progress from background to specific interests and goals
- are each a single clear sentence ending with a question mark
Do not number the questions.`

type assessmentOutput struct {
	Questions []string `json:"questions" jsonschema:"description=Assessment questions for the learner,minItems=3,maxItems=6"`
}

var assessmentSchema = mustReflect("assessment-questions", "Questions that assess a learner before teaching a subject", &assessmentOutput{})

// mustReflect builds an llm.Schema from a Go type. Reflection of a fixed
// struct cannot fail at runtime, so errors panic at init.
func mustReflect(name, description string, v any) *llm.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(v)
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("marshal %s schema: %v", name, err))
	}
	var def map[string]any
	if err := json.Unmarshal(b, &def); err != nil {
		panic(fmt.Sprintf("decode %s schema: %v", name, err))
	}
	delete(def, "$schema")
	delete(def, "$id")
	return &llm.Schema{Name: name, Description: description, Definition: def}
}

// Assessor produces pre-assessment questions for a learning request.
type Assessor struct {
	llm llm.Provider
	log zerolog.Logger
}

// NewAssessor creates an assessor. p may be nil, in which case only the
// subject templates are used.
func NewAssessor(p llm.Provider, log zerolog.Logger) *Assessor {
	return &Assessor{llm: p, log: log}
}

// Assess returns the questions for request, ending with the common
// questions. An empty request is rejected.
func (a *Assessor) Assess(ctx context.Context, request string) (chat.Assessment, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return chat.Assessment{}, &chat.RejectedError{Reason: "learning request cannot be empty"}
	}

	questions := a.generate(ctx, request)
	if len(questions) < minQuestions {
		a.log.Info().Str("request", request).Int("generated", len(questions)).Msg("using template assessment questions")
		questions = TemplateQuestions(request)
	}
	return chat.Assessment{Questions: append(questions, commonQuestions...)}, nil
}

func (a *Assessor) generate(ctx context.Context, request string) []string {
	if a.llm == nil {
		return nil
	}
	resp, err := a.llm.Generate(llm.WithPurpose(ctx, llm.PurposeAssessment), llm.Request{
		System: assessSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("A student has said: %q\nGenerate assessment questions about their current knowledge, goals and interests.", request),
		}},
		Schema:      assessmentSchema,
		MaxTokens:   512,
		Temperature: 0.3,
	})
	if err != nil {
		// A model that ignored the schema may still have listed questions.
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) && len(inv.Content) > 0 {
			return ParseQuestions(string(inv.Content))
		}
		a.log.Warn().Err(err).Msg("assessment generation failed")
		return nil
	}

	var out assessmentOutput
	if err := resp.Decode(&out); err != nil {
		return ParseQuestions(resp.Text)
	}
	return ParseQuestions(strings.Join(out.Questions, "\n"))
}

// ParseQuestions extracts questions from free text: one per line, with
// numbering and bullets removed, keeping only lines ending in "?".
func ParseQuestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "0123456789.- *")
		line = strings.TrimSpace(line)
		if line != "" && strings.HasSuffix(line, "?") {
			out = append(out, line)
		}
	}
	return out
}

var mlWord = regexp.MustCompile(`(?i)\bml\b`)

// TemplateQuestions are the subject-specific questions used when no
// model is available or it produced too few.
func TemplateQuestions(request string) []string {
	subject := strings.ToLower(request)
	switch {
	case strings.Contains(subject, "python"):
		return []string{
			"What is your current level of programming experience?",
			"Have you used any programming languages before Python?",
			"What specific Python applications interest you (web, data science, automation)?",
			"Do you have any specific Python libraries or frameworks in mind?",
		}
	case strings.Contains(subject, "machine learning") || mlWord.MatchString(subject):
		return []string{
			"What is your background in AI and statistics?",
			"Have you worked with any ML frameworks before?",
			"What specific ML applications interest you?",
			"Are you familiar with Python, as it's commonly used in ML?",
		}
	case strings.Contains(subject, "web"):
		return []string{
			"Are you more interested in frontend or backend development?",
			"Have you worked with HTML, CSS, or JavaScript before?",
			"Which web frameworks are you interested in learning?",
			"Do you have experience with any web technologies?",
		}
	}
	return []string{
		fmt.Sprintf("What is your current knowledge level in %s?", request),
		"What specific aspects of this subject interest you most?",
		"How do you plan to apply this knowledge?",
		"What learning resources have you tried before?",
	}
}
