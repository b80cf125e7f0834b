package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// AnswerKind tags the Answer union.
type AnswerKind int

const (
	// AnswerText holds the single string value of free-text, single-choice,
	// scale and dropdown questions.
	AnswerText AnswerKind = iota
	// AnswerMultiSelect holds the selected options of a multi-choice question.
	AnswerMultiSelect
	// AnswerGrid maps row index to the selected column label of a grid question.
	AnswerGrid
)

// Answer is the tagged union of the three answer shapes a respondent can
// produce. The zero value is an empty text answer. Values are immutable once
// constructed; condition evaluation pattern-matches on Kind instead of
// inspecting runtime types.
type Answer struct {
	kind  AnswerKind
	text  string
	multi []string
	grid  map[int]string
}

// NewTextAnswer builds a single-valued answer.
func NewTextAnswer(value string) Answer {
	return Answer{kind: AnswerText, text: value}
}

// NewMultiSelectAnswer builds a multi-valued answer.
func NewMultiSelectAnswer(values ...string) Answer {
	return Answer{kind: AnswerMultiSelect, multi: append([]string(nil), values...)}
}

// NewGridAnswer builds a grid answer mapping row index to column label.
func NewGridAnswer(selections map[int]string) Answer {
	copied := make(map[int]string, len(selections))
	for row, col := range selections {
		copied[row] = col
	}
	return Answer{kind: AnswerGrid, grid: copied}
}

// Kind returns the union tag.
func (a Answer) Kind() AnswerKind { return a.kind }

// Text returns the single value. Valid only for AnswerText.
func (a Answer) Text() string { return a.text }

// Values returns the selected options. Valid only for AnswerMultiSelect.
func (a Answer) Values() []string { return a.multi }

// Grid returns the row index to column label selections. Valid only for AnswerGrid.
func (a Answer) Grid() map[int]string { return a.grid }

// MarshalJSON emits the wire shape the original form builder persists:
// a bare string, an array of strings, or an object keyed by row index.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerMultiSelect:
		if a.multi == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(a.multi)
	case AnswerGrid:
		obj := make(map[string]string, len(a.grid))
		for row, col := range a.grid {
			obj[strconv.Itoa(row)] = col
		}
		return json.Marshal(obj)
	default:
		return json.Marshal(a.text)
	}
}

// UnmarshalJSON accepts the loose shapes respondents submit: strings, numbers
// and booleans coerce to text answers, arrays to multi-select (members string
// coerced), objects to grid selections.
func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*a = NewTextAnswer(v)
	case float64:
		*a = NewTextAnswer(formatNumber(v))
	case bool:
		*a = NewTextAnswer(strconv.FormatBool(v))
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, coerceString(item))
		}
		*a = NewMultiSelectAnswer(values...)
	case map[string]any:
		grid := make(map[int]string, len(v))
		for key, item := range v {
			row, err := strconv.Atoi(key)
			if err != nil {
				return fmt.Errorf("grid answer row %q is not an index", key)
			}
			grid[row] = coerceString(item)
		}
		*a = NewGridAnswer(grid)
	case nil:
		return fmt.Errorf("answer cannot be null")
	default:
		return fmt.Errorf("unsupported answer shape %T", raw)
	}
	return nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return formatNumber(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ResponseMap accumulates a respondent's in-progress answers keyed by
// question id. It is session-local and never shared across requests.
type ResponseMap map[string]Answer

// SortedQuestionIDs returns the answered question ids in lexical order.
// Useful for deterministic logging and tests.
func (m ResponseMap) SortedQuestionIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
