package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Answer is a team's response to one question: either a set of option
// letters or a single free value for numeric/integer questions.
type Answer struct {
	Options []string
	Value   string
}

// Answers maps question numbers to answers.
type Answers map[int]Answer

// Choices builds an option-set answer.
func Choices(letters ...string) Answer {
	return Answer{Options: letters}
}

// Value builds a free-value answer.
func Value(v string) Answer {
	return Answer{Value: v}
}

// IsEmpty reports whether the question was left unanswered.
func (a Answer) IsEmpty() bool {
	return len(a.Options) == 0 && strings.TrimSpace(a.Value) == ""
}

// IsValue reports whether the answer is a free value rather than an option set.
func (a Answer) IsValue() bool {
	return strings.TrimSpace(a.Value) != ""
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Answer{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var opts []string
		if err := json.Unmarshal(trimmed, &opts); err != nil {
			return fmt.Errorf("answer options: %w", err)
		}
		*a = Answer{Options: opts}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = Answer{Value: s}
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("unsupported answer %s", string(trimmed))
		}
		*a = Answer{Value: n.String()}
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsValue() {
		return json.Marshal(a.Value)
	}
	if a.Options == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Options)
}

// ComparisonMode states how a question's answer is checked.
type ComparisonMode string

const (
	// ModeOptions grades an option set with partial credit.
	ModeOptions ComparisonMode = "options"
	// ModeExact compares trimmed values case-insensitively.
	ModeExact ComparisonMode = "exact"
	// ModeNumeric compares parsed numbers within a tolerance.
	ModeNumeric ComparisonMode = "numeric"
)

// KeyEntry is the expected answer for one question.
type KeyEntry struct {
	Mode      ComparisonMode `json:"mode" yaml:"mode"`
	Correct   []string       `json:"correct,omitempty" yaml:"correct,omitempty"`
	Value     string         `json:"value,omitempty" yaml:"value,omitempty"`
	Tolerance float64        `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// Marking holds the points awarded per outcome.
type Marking struct {
	Full    int `json:"full" yaml:"full"`
	Partial int `json:"partial" yaml:"partial"`
	Penalty int `json:"penalty" yaml:"penalty"`
}

// DefaultMarking is +3 for a perfect answer, +1 for partial credit and -1 for any wrong option.
func DefaultMarking() Marking {
	return Marking{Full: 3, Partial: 1, Penalty: -1}
}

// AnswerKey is the fixed grading key of a quiz.
type AnswerKey struct {
	ID        string           `json:"id" yaml:"id"`
	Marking   Marking          `json:"marking" yaml:"marking"`
	Questions map[int]KeyEntry `json:"questions" yaml:"questions"`
}

// EffectiveMarking returns the key's marking, or the default when none is set.
func (k AnswerKey) EffectiveMarking() Marking {
	if k.Marking == (Marking{}) {
		return DefaultMarking()
	}
	return k.Marking
}

// QuestionIDs returns the question numbers in ascending order.
func (k AnswerKey) QuestionIDs() []int {
	ids := make([]int, 0, len(k.Questions))
	for id := range k.Questions {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Validate checks that every question states a usable comparison mode.
func (k AnswerKey) Validate() error {
	if len(k.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidAnswerKey)
	}
	for _, id := range k.QuestionIDs() {
		entry := k.Questions[id]
		switch entry.Mode {
		case ModeOptions:
			if len(entry.Correct) == 0 {
				return fmt.Errorf("%w: question %d has no correct options", ErrInvalidAnswerKey, id)
			}
		case ModeExact:
			if strings.TrimSpace(entry.Value) == "" {
				return fmt.Errorf("%w: question %d has no value", ErrInvalidAnswerKey, id)
			}
		case ModeNumeric:
			if _, err := strconv.ParseFloat(strings.TrimSpace(entry.Value), 64); err != nil {
				return fmt.Errorf("%w: question %d value %q is not a number", ErrInvalidAnswerKey, id, entry.Value)
			}
			if entry.Tolerance < 0 {
				return fmt.Errorf("%w: question %d has a negative tolerance", ErrInvalidAnswerKey, id)
			}
		case "":
			return fmt.Errorf("%w: question %d has no comparison mode", ErrInvalidAnswerKey, id)
		default:
			return fmt.Errorf("%w: question %d has unknown mode %q", ErrInvalidAnswerKey, id, entry.Mode)
		}
	}
	return nil
}
