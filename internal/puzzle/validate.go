package puzzle

import (
	"fmt"
	"strings"
	"unicode"
)

// Purity selects the language-purity policy. Generated content gets zero
// tolerance: a single foreign-script letter rejects the candidate. Stored
// legacy content is held to a dominant-script ratio instead, since older bank
// rows predate the strict policy.
type Purity int

const (
	PurityStrict Purity = iota
	PurityRatio
)

// minimum share of letters that must belong to the configured script under
// the ratio policy
const dominantScriptRatio = 0.85

// Validation bounds, in runes.
const (
	minQuestionLen = 10
	maxQuestionLen = 500
	minOptionLen   = 2
	maxOptionLen   = 200
)

// Report carries the outcome of structural validation.
type Report struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *Report) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// scriptFor maps a language code to its expected Unicode script.
func scriptFor(language string) *unicode.RangeTable {
	switch language {
	case "ar":
		return unicode.Arabic
	default:
		return unicode.Latin
	}
}

// Validate checks a normalized puzzle against the structural contract:
// script purity for the configured language, length bounds on question and
// options, and absence of duplicate options.
func Validate(p *Puzzle, language string, purity Purity) Report {
	var r Report

	if err := checkText(p.Question, language, purity); err != "" {
		r.errorf("question: %s", err)
	}
	if n := len([]rune(p.Question)); n < minQuestionLen {
		r.errorf("question too short (%d runes)", n)
	} else if n > maxQuestionLen {
		r.errorf("question too long (%d runes)", n)
	}

	if p.CorrectIndex < 0 || p.CorrectIndex >= len(p.Options) {
		r.errorf("correct index %d out of range [0, %d]", p.CorrectIndex, len(p.Options)-1)
	}

	seen := make(map[string]bool, len(p.Options))
	for i, opt := range p.Options {
		if err := checkText(opt, language, purity); err != "" {
			r.errorf("option %d: %s", i, err)
		}
		if n := len([]rune(opt)); n < minOptionLen {
			r.errorf("option %d too short", i)
		} else if n > maxOptionLen {
			r.errorf("option %d too long", i)
		}

		key := strings.ToLower(strings.TrimSpace(opt))
		if seen[key] {
			r.errorf("option %d is a duplicate", i)
		}
		seen[key] = true
	}

	if p.Hint != "" {
		if err := checkText(p.Hint, language, purity); err != "" {
			r.warnf("hint: %s", err)
		}
	}

	r.Valid = len(r.Errors) == 0
	return r
}

// checkText validates one text field for corruption and script purity.
// Returns an empty string when the text is acceptable.
func checkText(text, language string, purity Purity) string {
	if strings.TrimSpace(text) == "" {
		return "empty text"
	}
	if hasCorruption(text) {
		return "corrupted or mis-encoded text"
	}

	script := scriptFor(language)

	var inScript, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(script, r) {
			inScript++
		}
	}
	if letters == 0 {
		return "no letters"
	}

	foreign := letters - inScript
	switch purity {
	case PurityStrict:
		// Zero tolerance: one foreign-script letter is mixing.
		if foreign > 0 {
			return fmt.Sprintf("script mixing: %d foreign-script letters", foreign)
		}
	case PurityRatio:
		if ratio := float64(inScript) / float64(letters); ratio < dominantScriptRatio {
			return fmt.Sprintf("only %.0f%% of letters in expected script", ratio*100)
		}
	}

	return ""
}

// hasCorruption detects character patterns typical of mis-encoded or
// garbled provider output.
func hasCorruption(text string) bool {
	// Latin letter directly glued to an Arabic letter
	runes := []rune(text)
	for i := 1; i < len(runes); i++ {
		a, b := runes[i-1], runes[i]
		if (isLatinLetter(a) && unicode.Is(unicode.Arabic, b)) ||
			(unicode.Is(unicode.Arabic, a) && isLatinLetter(b)) {
			return true
		}
	}

	// Runs of combining diacritics indicate encoding damage
	combining := 0
	for _, r := range runes {
		if unicode.Is(unicode.Mn, r) {
			combining++
			if combining >= 2 {
				return true
			}
		} else {
			combining = 0
		}
	}

	return false
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
