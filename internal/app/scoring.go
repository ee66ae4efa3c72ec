package app

import (
	"math"
	"strconv"
	"strings"

	"mathemania-service/internal/domain"
)

// Score grades an answer set against the key. It is pure: the same answers and
// key always give the same total, so publication can rerun it freely.
// Answers to question numbers missing from the key are ignored.
func Score(answers domain.Answers, key domain.AnswerKey) int {
	marking := key.EffectiveMarking()
	total := 0
	for id, entry := range key.Questions {
		total += scoreQuestion(answers[id], entry, marking)
	}
	return total
}

func scoreQuestion(answer domain.Answer, entry domain.KeyEntry, marking domain.Marking) int {
	if answer.IsEmpty() {
		return 0
	}
	switch entry.Mode {
	case domain.ModeOptions:
		if answer.IsValue() {
			return marking.Penalty
		}
		return scoreOptions(answer.Options, entry.Correct, marking)
	case domain.ModeExact:
		if !answer.IsValue() {
			return marking.Penalty
		}
		if strings.EqualFold(strings.TrimSpace(answer.Value), strings.TrimSpace(entry.Value)) {
			return marking.Full
		}
		return marking.Penalty
	case domain.ModeNumeric:
		if !answer.IsValue() {
			return marking.Penalty
		}
		if numericMatch(answer.Value, entry.Value, entry.Tolerance) {
			return marking.Full
		}
		return marking.Penalty
	default:
		return 0
	}
}

func scoreOptions(selected, correct []string, marking domain.Marking) int {
	want := letterSet(correct)
	got := letterSet(selected)
	if len(got) == 0 {
		return 0
	}
	for letter := range got {
		if _, ok := want[letter]; !ok {
			return marking.Penalty
		}
	}
	if len(got) == len(want) {
		return marking.Full
	}
	return marking.Partial
}

func letterSet(letters []string) map[string]struct{} {
	set := make(map[string]struct{}, len(letters))
	for _, l := range letters {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	return set
}

func numericMatch(given, want string, tolerance float64) bool {
	g, err := strconv.ParseFloat(strings.TrimSpace(given), 64)
	if err != nil {
		return false
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(want), 64)
	if err != nil {
		return false
	}
	return math.Abs(g-w) <= tolerance
}
