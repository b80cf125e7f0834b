package visibility

import (
	"sort"

	"avalia/internal/form/models"
)

// VisibleQuestion pairs a visible question with its 1-based display index.
// Sections render as headers and carry DisplayIndex 0.
type VisibleQuestion struct {
	Question     models.Question
	DisplayIndex int
}

// Resolution is the outcome of resolving a whole form against a response map.
type Resolution struct {
	Visible []VisibleQuestion

	answerable map[string]struct{}
}

// IsAnswerable reports whether the question id is visible and collects an
// answer under the current responses. Required-field validation and
// submit-time filtering consult this set.
func (r *Resolution) IsAnswerable(questionID string) bool {
	_, ok := r.answerable[questionID]
	return ok
}

// AnswerableCount returns how many visible questions collect answers.
func (r *Resolution) AnswerableCount() int {
	return len(r.answerable)
}

// Resolve orders the questions and computes the currently visible subsequence
// with display indices. It is pure and must be re-run whenever responses
// change.
//
// Answers to questions that are themselves hidden are ignored while resolving:
// a question whose dependency became hidden again is hidden too, even if a
// stale answer for the dependency is still present in responses. Conditionals
// only reference strictly earlier questions, so a single ordered pass settles
// every rule.
func Resolve(questions []models.Question, responses models.ResponseMap) *Resolution {
	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	res := &Resolution{answerable: make(map[string]struct{})}
	effective := make(models.ResponseMap, len(responses))
	displayIndex := 0

	for i := range ordered {
		q := &ordered[i]
		if !ShouldShow(q, effective) {
			continue
		}

		vq := VisibleQuestion{Question: *q}
		if q.Type.Answerable() {
			displayIndex++
			vq.DisplayIndex = displayIndex
			res.answerable[q.ID] = struct{}{}
			if answer, ok := responses[q.ID]; ok {
				effective[q.ID] = answer
			}
		}
		res.Visible = append(res.Visible, vq)
	}

	return res
}
