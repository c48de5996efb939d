package puzzle

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		check   func(t *testing.T, p *Puzzle)
	}{
		{
			name: "clean payload",
			raw: `{"question": "What is the capital of France?",
				"options": ["Paris", "London", "Berlin", "Madrid"],
				"correctIndex": 0, "hint": "City of Light"}`,
			check: func(t *testing.T, p *Puzzle) {
				if p.Question != "What is the capital of France?" {
					t.Errorf("question = %q", p.Question)
				}
				if p.CorrectIndex != 0 {
					t.Errorf("correctIndex = %d, want 0", p.CorrectIndex)
				}
				if p.Hint != "City of Light" {
					t.Errorf("hint = %q", p.Hint)
				}
			},
		},
		{
			name: "markdown fences stripped",
			raw: "```json\n{\"question\": \"Which planet is closest to the sun?\"," +
				"\"options\": [\"Mercury\", \"Venus\"], \"correctIndex\": 0}\n```",
			check: func(t *testing.T, p *Puzzle) {
				if len(p.Options) != 2 {
					t.Errorf("options = %v", p.Options)
				}
			},
		},
		{
			name: "string correct index coerced",
			raw: `{"question": "Which ocean is the largest?",
				"options": ["Pacific", "Atlantic", "Indian"], "correctIndex": "0"}`,
			check: func(t *testing.T, p *Puzzle) {
				if p.CorrectIndex != 0 {
					t.Errorf("correctIndex = %d, want 0", p.CorrectIndex)
				}
			},
		},
		{
			name: "float correct index coerced",
			raw: `{"question": "Which ocean is the largest?",
				"options": ["Atlantic", "Pacific"], "correctIndex": 1.0}`,
			check: func(t *testing.T, p *Puzzle) {
				if p.CorrectIndex != 1 {
					t.Errorf("correctIndex = %d, want 1", p.CorrectIndex)
				}
			},
		},
		{
			name: "whitespace collapsed and options trimmed",
			raw: `{"question": "  What   is  2+2?  ",
				"options": ["  four ", "five"], "correctIndex": 0}`,
			check: func(t *testing.T, p *Puzzle) {
				if p.Question != "What is 2+2?" {
					t.Errorf("question = %q", p.Question)
				}
				if p.Options[0] != "four" {
					t.Errorf("option = %q", p.Options[0])
				}
			},
		},
		{
			name:    "not json",
			raw:     "Sure! Here is your trivia question:",
			wantErr: true,
		},
		{
			name:    "empty question",
			raw:     `{"question": "  ", "options": ["a", "b"], "correctIndex": 0}`,
			wantErr: true,
		},
		{
			name:    "single option",
			raw:     `{"question": "What is the capital of France?", "options": ["Paris"], "correctIndex": 0}`,
			wantErr: true,
		},
		{
			name:    "index out of range",
			raw:     `{"question": "What is the capital of France?", "options": ["Paris", "London"], "correctIndex": 2}`,
			wantErr: true,
		},
		{
			name:    "negative index",
			raw:     `{"question": "What is the capital of France?", "options": ["Paris", "London"], "correctIndex": -1}`,
			wantErr: true,
		},
		{
			name:    "fractional index",
			raw:     `{"question": "What is the capital of France?", "options": ["Paris", "London"], "correctIndex": 0.5}`,
			wantErr: true,
		},
		{
			name:    "missing index",
			raw:     `{"question": "What is the capital of France?", "options": ["Paris", "London"]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", p)
				}
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("error = %v, want ErrMalformed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			tt.check(t, p)
		})
	}
}

func TestRedactedOmitsAnswer(t *testing.T) {
	p := &Puzzle{
		ID:           "p1",
		Question:     "What is the capital of France?",
		Options:      []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectIndex: 0,
		Hint:         "City of Light",
		Explanation:  "Paris has been the capital since 987.",
	}

	data, err := json.Marshal(p.Redacted())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	s := string(data)
	if strings.Contains(s, "correctIndex") {
		t.Errorf("redacted payload leaks correctIndex: %s", s)
	}
	if strings.Contains(s, "explanation") {
		t.Errorf("redacted payload leaks explanation: %s", s)
	}
	if !strings.Contains(s, "Paris") {
		t.Errorf("redacted payload missing options: %s", s)
	}
}

func TestCorrectOption(t *testing.T) {
	p := &Puzzle{Options: []string{"a", "b", "c"}, CorrectIndex: 1}
	if got := p.CorrectOption(); got != "b" {
		t.Errorf("CorrectOption() = %q, want b", got)
	}

	p.CorrectIndex = 5
	if got := p.CorrectOption(); got != "" {
		t.Errorf("CorrectOption() = %q, want empty for out of range", got)
	}
}

func TestFingerprint(t *testing.T) {
	base := &Puzzle{
		Question:     "What is the capital of France?",
		Options:      []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectIndex: 0,
	}

	shuffled := &Puzzle{
		Question:     "what is the capital of france?",
		Options:      []string{"Madrid", "Berlin", "London", "paris"},
		CorrectIndex: 3,
	}

	if Fingerprint(base) != Fingerprint(shuffled) {
		t.Error("fingerprint should be independent of option order and case")
	}

	other := &Puzzle{
		Question:     "What is the capital of Spain?",
		Options:      []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectIndex: 3,
	}
	if Fingerprint(base) == Fingerprint(other) {
		t.Error("different questions must not collide")
	}
}
