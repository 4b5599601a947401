package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelAliases(t *testing.T) {
	tests := []struct{ in, want string }{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, geminiModels); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(questionsSchema().Definition)

	if s.Type != genai.TypeObject {
		t.Fatalf("Type = %s", s.Type)
	}
	q, ok := s.Properties["questions"]
	if !ok {
		t.Fatal("missing questions property")
	}
	if q.Type != genai.TypeArray || q.Items == nil || q.Items.Type != genai.TypeString {
		t.Errorf("questions = %+v", q)
	}
	if q.MinItems == nil || *q.MinItems != 3 {
		t.Errorf("MinItems = %v", q.MinItems)
	}
	if len(s.Required) != 1 || s.Required[0] != "questions" {
		t.Errorf("Required = %v", s.Required)
	}
}

func TestStringList(t *testing.T) {
	if got := stringList([]any{"a", 1, "b"}); len(got) != 2 {
		t.Errorf("stringList = %v", got)
	}
	if got := stringList([]string{"x"}); len(got) != 1 {
		t.Errorf("stringList = %v", got)
	}
	if got := stringList(nil); got != nil {
		t.Errorf("stringList(nil) = %v", got)
	}
}
