package puzzle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Puzzle is the canonical shape of one multiple-choice puzzle. CorrectIndex
// is zero-based into Options.
type Puzzle struct {
	ID           string   `json:"puzzleId,omitempty"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Hint         string   `json:"hint,omitempty"`
	Explanation  string   `json:"explanation,omitempty"`
	Category     string   `json:"category,omitempty"`
}

// Public is the client-facing view of a puzzle. It has no correct-answer
// field at all, so a redacted puzzle cannot leak the answer by accident.
type Public struct {
	ID       string   `json:"puzzleId,omitempty"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Hint     string   `json:"hint,omitempty"`
	Category string   `json:"category,omitempty"`
}

// Redacted returns the client-facing view with the correct index stripped.
func (p *Puzzle) Redacted() Public {
	return Public{
		ID:       p.ID,
		Question: p.Question,
		Options:  p.Options,
		Hint:     p.Hint,
		Category: p.Category,
	}
}

// CorrectOption returns the text of the correct answer.
func (p *Puzzle) CorrectOption() string {
	if p.CorrectIndex < 0 || p.CorrectIndex >= len(p.Options) {
		return ""
	}
	return p.Options[p.CorrectIndex]
}

var (
	// ErrMalformed indicates raw content that cannot be coerced into the
	// canonical shape. Malformed candidates never travel past normalization.
	ErrMalformed = errors.New("malformed puzzle content")
)

// rawCandidate tolerates the loose JSON that content providers actually emit:
// correctIndex as a number or a numeric string, options with surrounding
// whitespace, markdown fences already stripped by the caller.
type rawCandidate struct {
	ID           string          `json:"puzzleId"`
	Question     string          `json:"question"`
	Options      []string        `json:"options"`
	CorrectIndex json.RawMessage `json:"correctIndex"`
	Hint         string          `json:"hint"`
	Explanation  string          `json:"explanation"`
	Category     string          `json:"category"`
}

// Normalize coerces raw provider output into a canonical Puzzle. It rejects
// candidates with fewer than two options, an out-of-range correct index, or
// empty question/option text after trimming.
func Normalize(raw string) (*Puzzle, error) {
	cleaned := stripFences(raw)

	var cand rawCandidate
	if err := json.Unmarshal([]byte(cleaned), &cand); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	question := strings.TrimSpace(cand.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", ErrMalformed)
	}

	options := make([]string, 0, len(cand.Options))
	for _, opt := range cand.Options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			return nil, fmt.Errorf("%w: empty option", ErrMalformed)
		}
		options = append(options, opt)
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 options, got %d", ErrMalformed, len(options))
	}

	idx, err := coerceIndex(cand.CorrectIndex)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(options) {
		return nil, fmt.Errorf("%w: correct index %d out of range [0, %d]", ErrMalformed, idx, len(options)-1)
	}

	return &Puzzle{
		ID:           strings.TrimSpace(cand.ID),
		Question:     collapseSpaces(question),
		Options:      options,
		CorrectIndex: idx,
		Hint:         strings.TrimSpace(cand.Hint),
		Explanation:  strings.TrimSpace(cand.Explanation),
		Category:     strings.TrimSpace(cand.Category),
	}, nil
}

// coerceIndex accepts 2, 2.0 and "2".
func coerceIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: missing correct index", ErrMalformed)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := n.Float64(); err == nil && f == float64(int(f)) {
			return int(f), nil
		}
		return 0, fmt.Errorf("%w: non-integer correct index %s", ErrMalformed, n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unparseable correct index", ErrMalformed)
}

// stripFences removes markdown code fences that chat models wrap JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
