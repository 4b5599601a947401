package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func questionsSchema() *Schema {
	return &Schema{
		Name:        "test-questions",
		Description: "assessment questions",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questions": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 3,
				},
			},
			"required": []any{"questions"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"questions":["a?","b?","c?"]}`, false},
		{"extra fields allowed", `{"questions":["a?","b?","c?"],"topic":"go"}`, false},
		{"too few", `{"questions":["a?"]}`, true},
		{"wrong type", `{"questions":"a?"}`, true},
		{"missing", `{}`, true},
		{"not json", `questions: a`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(questionsSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Errorf("err = %T, want *ErrInvalidResponse", err)
				}
			}
		})
	}
}

func TestValidateNilSchema(t *testing.T) {
	if err := Validate(nil, json.RawMessage(`garbage`)); err != nil {
		t.Errorf("nil schema should accept anything, got %v", err)
	}
}

func TestValidateCachesCompiledSchema(t *testing.T) {
	s := questionsSchema()
	s.Name = "test-cache"
	if err := Validate(s, json.RawMessage(`{"questions":["a","b","c"]}`)); err != nil {
		t.Fatal(err)
	}
	if _, ok := compiled.Load("test-cache"); !ok {
		t.Error("schema not cached")
	}
}
