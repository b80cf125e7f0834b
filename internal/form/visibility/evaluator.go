// Package visibility implements the conditional question visibility engine:
// a pure evaluator for a single question's display rule and a resolver that
// applies it across an ordered form, numbering the visible questions.
package visibility

import (
	"strings"

	"avalia/internal/form/models"
)

// ShouldShow reports whether a question is currently visible given the
// respondent's accumulated answers.
//
// A question without a conditional is always visible. A conditional question
// is hidden until its dependency has been answered, even when the configured
// conditions would be vacuously satisfied. Conditions combine with AND (all
// must hold) or OR (at least one must hold); OR is the default for any other
// operator value.
func ShouldShow(q *models.Question, responses models.ResponseMap) bool {
	if q.Conditional == nil {
		return true
	}

	dependentValue, answered := responses[q.Conditional.DependsOn]
	if !answered {
		return false
	}

	if q.Conditional.Operator == models.OperatorAND {
		for _, condition := range q.Conditional.Conditions {
			if !checkCondition(condition, dependentValue) {
				return false
			}
		}
		return true
	}

	for _, condition := range q.Conditional.Conditions {
		if checkCondition(condition, dependentValue) {
			return true
		}
	}
	return false
}

// checkCondition evaluates one condition against the dependency's answer.
// Both sides are normalized (trimmed, lowercased) before comparison, matching
// the persisted rules written by the form builder. Unknown condition types
// fail closed.
func checkCondition(condition models.Condition, dependentValue models.Answer) bool {
	want := normalize(condition.Value)

	switch dependentValue.Kind() {
	case models.AnswerMultiSelect:
		return matchMembers(condition.Type, dependentValue.Values(), want)
	case models.AnswerGrid:
		// Grid answers behave as the multi-valued set of selected column labels.
		grid := dependentValue.Grid()
		members := make([]string, 0, len(grid))
		for _, col := range grid {
			members = append(members, col)
		}
		return matchMembers(condition.Type, members, want)
	default:
		got := normalize(dependentValue.Text())
		switch condition.Type {
		case models.ConditionEquals:
			return got == want
		case models.ConditionContains:
			return strings.Contains(got, want)
		}
		return false
	}
}

func matchMembers(kind models.ConditionType, members []string, want string) bool {
	switch kind {
	case models.ConditionEquals:
		for _, member := range members {
			if normalize(member) == want {
				return true
			}
		}
	case models.ConditionContains:
		for _, member := range members {
			if strings.Contains(normalize(member), want) {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
