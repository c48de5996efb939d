package puzzle

import (
	"strings"
	"testing"
)

func validPuzzle() *Puzzle {
	return &Puzzle{
		Question:     "What is the capital of France?",
		Options:      []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectIndex: 0,
		Hint:         "City of Light",
		Explanation:  "Paris has been the capital for centuries.",
		Category:     "Geography",
	}
}

func TestValidateAccepts(t *testing.T) {
	r := Validate(validPuzzle(), "en", PurityStrict)
	if !r.Valid {
		t.Fatalf("expected valid, errors: %v", r.Errors)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Puzzle)
	}{
		{
			name:   "question too short",
			mutate: func(p *Puzzle) { p.Question = "Eh?" },
		},
		{
			name:   "question too long",
			mutate: func(p *Puzzle) { p.Question = strings.Repeat("a", 501) },
		},
		{
			name:   "option too long",
			mutate: func(p *Puzzle) { p.Options[1] = strings.Repeat("b", 201) },
		},
		{
			name:   "single character option",
			mutate: func(p *Puzzle) { p.Options[1] = "x" },
		},
		{
			name: "duplicate options differing only by case",
			mutate: func(p *Puzzle) {
				p.Options = []string{"Paris", "paris", "Berlin", "Madrid"}
			},
		},
		{
			name:   "correct index out of range",
			mutate: func(p *Puzzle) { p.CorrectIndex = 4 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPuzzle()
			tt.mutate(p)
			if r := Validate(p, "en", PurityStrict); r.Valid {
				t.Error("expected invalid")
			}
		})
	}
}

func TestValidatePurityPolicies(t *testing.T) {
	// Arabic question with a couple of Latin letters mixed in. Separated by
	// spaces so it is script mixing, not glued-letter corruption.
	mixed := &Puzzle{
		Question:     "ما هي عاصمة فرنسا ab ؟",
		Options:      []string{"باريس", "لندن", "برلين", "مدريد"},
		CorrectIndex: 0,
	}

	if r := Validate(mixed, "ar", PurityStrict); r.Valid {
		t.Error("strict purity must reject any foreign-script letters")
	}

	// Two Latin letters among ~20 Arabic ones stays above the ratio floor.
	if r := Validate(mixed, "ar", PurityRatio); !r.Valid {
		t.Errorf("ratio purity should tolerate a small foreign share, errors: %v", r.Errors)
	}
}

func TestValidateDetectsCorruption(t *testing.T) {
	p := validPuzzle()
	p.Question = "What is the capital of Franceفر?"

	if r := Validate(p, "en", PurityRatio); r.Valid {
		t.Error("glued Latin-Arabic letters must be rejected even under ratio purity")
	}
}

func TestScore(t *testing.T) {
	p := validPuzzle()
	full := Score(p, "en", PurityStrict)
	if full < 90 {
		t.Errorf("well-formed puzzle scored %d", full)
	}

	// Invalid content must land far below any sane acceptance threshold.
	bad := validPuzzle()
	bad.Question = "??"
	if got := Score(bad, "en", PurityStrict); got >= 50 {
		t.Errorf("invalid puzzle scored %d", got)
	}
}

func TestScorePenalties(t *testing.T) {
	base := Score(validPuzzle(), "en", PurityStrict)

	t.Run("three options", func(t *testing.T) {
		p := validPuzzle()
		p.Options = p.Options[:3]
		if got := Score(p, "en", PurityStrict); got >= base {
			t.Errorf("score %d, want below %d", got, base)
		}
	})

	t.Run("repeated character runs", func(t *testing.T) {
		p := validPuzzle()
		p.Question = "What is the caaaaapital of Fraaaaance?"
		if got := Score(p, "en", PurityStrict); got >= base {
			t.Errorf("score %d, want below %d", got, base)
		}
	})

	t.Run("length outlier option", func(t *testing.T) {
		p := validPuzzle()
		p.Options[0] = "Paris, the famous capital city on the Seine in northern France"
		if got := Score(p, "en", PurityStrict); got >= base {
			t.Errorf("score %d, want below %d", got, base)
		}
	})

	t.Run("metadata bonus", func(t *testing.T) {
		// Start from a penalized puzzle so the bonus is visible under the
		// 100-point clamp.
		with := validPuzzle()
		with.Options = with.Options[:3]

		without := validPuzzle()
		without.Options = without.Options[:3]
		without.Hint = ""
		without.Explanation = ""
		without.Category = ""

		if Score(with, "en", PurityStrict) <= Score(without, "en", PurityStrict) {
			t.Error("hint, explanation and category should raise the score")
		}
	})
}
