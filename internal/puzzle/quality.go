package puzzle

import (
	"strings"
	"unicode/utf8"
)

// preferredOptionCount is what well-formed generated content should carry;
// fewer options remain structurally legal but cost quality points.
const preferredOptionCount = 4

// Score rates a normalized puzzle on a 0-100 scale. It penalizes corruption
// artifacts the structural checks tolerate: repeated-character runs, malformed
// punctuation, wildly unequal option lengths, missing hint or metadata.
// Candidates failing validation outright score very low.
func Score(p *Puzzle, language string, purity Purity) int {
	score := 100

	report := Validate(p, language, purity)
	if !report.Valid {
		score -= 50 + len(report.Errors)*15
		return clamp(score)
	}

	score -= len(report.Warnings) * 8

	qLen := utf8.RuneCountInString(p.Question)
	if qLen < 15 {
		score -= 25
	}
	if qLen > 400 {
		score -= 25
	}

	score -= repeatedRuns(p.Question, 4) * 10

	if len(p.Options) != preferredOptionCount {
		score -= 15
	}

	var lengths []int
	for _, opt := range p.Options {
		n := utf8.RuneCountInString(opt)
		lengths = append(lengths, n)

		if n > 250 {
			score -= 15
		}
		score -= repeatedRuns(opt, 3) * 12
		score -= suspiciousPunctuation(opt) * 15
	}

	// Balanced options: a glaring length outlier usually marks the answer.
	if len(lengths) > 1 {
		min, max, sum := lengths[0], lengths[0], 0
		for _, n := range lengths {
			if n < min {
				min = n
			}
			if n > max {
				max = n
			}
			sum += n
		}
		avg := float64(sum) / float64(len(lengths))
		if float64(max-min) > avg*1.5 {
			score -= 20
		}
	}

	if p.Hint != "" {
		score += 5
	}
	if p.Explanation != "" {
		score += 5
	}
	if p.Category != "" {
		score += 3
	}

	return clamp(score)
}

// repeatedRuns counts runs of the same rune of at least minRun length.
func repeatedRuns(s string, minRun int) int {
	var runs, streak int
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			streak++
			if streak == minRun {
				runs++
			}
		} else {
			prev = r
			streak = 1
		}
	}
	return runs
}

// suspiciousPunctuation counts "??", "!!" and "..." style artifacts.
func suspiciousPunctuation(s string) int {
	count := 0
	count += strings.Count(s, "??")
	count += strings.Count(s, "!!")
	count += strings.Count(s, "...")
	return count
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
