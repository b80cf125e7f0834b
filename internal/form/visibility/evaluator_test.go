package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"avalia/internal/form/models"
)

func conditionalOn(dependsOn string, op models.ConditionOperator, conditions ...models.Condition) *models.Conditional {
	return &models.Conditional{DependsOn: dependsOn, Operator: op, Conditions: conditions}
}

func equals(value string) models.Condition {
	return models.Condition{Type: models.ConditionEquals, Value: value}
}

func contains(value string) models.Condition {
	return models.Condition{Type: models.ConditionContains, Value: value}
}

func TestShouldShowWithoutConditional(t *testing.T) {
	q := &models.Question{ID: "q1", Type: models.QuestionText, Order: 1}
	assert.True(t, ShouldShow(q, models.ResponseMap{}))
}

func TestShouldShowAbsentDependency(t *testing.T) {
	q := &models.Question{
		ID:          "q2",
		Type:        models.QuestionText,
		Order:       2,
		Conditional: conditionalOn("q1", models.OperatorOR, equals("Sim")),
	}

	// Never visible before the dependency is answered, even though the
	// condition would be vacuously satisfiable.
	assert.False(t, ShouldShow(q, models.ResponseMap{}))
	assert.False(t, ShouldShow(q, models.ResponseMap{"other": models.NewTextAnswer("Sim")}))
}

func TestShouldShowOrSemantics(t *testing.T) {
	q := &models.Question{
		ID:          "q2",
		Type:        models.QuestionText,
		Order:       2,
		Conditional: conditionalOn("q1", models.OperatorOR, equals("A"), equals("B")),
	}

	assert.True(t, ShouldShow(q, models.ResponseMap{"q1": models.NewTextAnswer("A")}))
	assert.True(t, ShouldShow(q, models.ResponseMap{"q1": models.NewTextAnswer("B")}))
	assert.False(t, ShouldShow(q, models.ResponseMap{"q1": models.NewTextAnswer("C")}))
}

func TestShouldShowAndSemantics(t *testing.T) {
	q := &models.Question{
		ID:          "q2",
		Type:        models.QuestionText,
		Order:       2,
		Conditional: conditionalOn("q1", models.OperatorAND, equals("A"), equals("B")),
	}

	// A single-valued answer cannot equal both values.
	assert.False(t, ShouldShow(q, models.ResponseMap{"q1": models.NewTextAnswer("A")}))

	// A multi-valued answer containing both does.
	assert.True(t, ShouldShow(q, models.ResponseMap{"q1": models.NewMultiSelectAnswer("A", "B")}))
}

func TestShouldShowDefaultsToOr(t *testing.T) {
	q := &models.Question{
		ID:          "q2",
		Type:        models.QuestionText,
		Order:       2,
		Conditional: conditionalOn("q1", "", equals("A"), equals("B")),
	}
	assert.True(t, ShouldShow(q, models.ResponseMap{"q1": models.NewTextAnswer("B")}))
}

func TestCheckConditionMultiValued(t *testing.T) {
	dep := models.NewMultiSelectAnswer("A", "C")

	assert.True(t, checkCondition(equals("A"), dep))
	assert.False(t, checkCondition(equals("B"), dep))
	assert.True(t, checkCondition(contains("A"), dep))
	assert.False(t, checkCondition(contains("Z"), dep))
}

func TestCheckConditionNormalizes(t *testing.T) {
	assert.True(t, checkCondition(equals("  SIM "), models.NewTextAnswer("sim")))
	assert.True(t, checkCondition(contains("univer"), models.NewTextAnswer("  Universidade  ")))
	assert.True(t, checkCondition(equals("sim"), models.NewMultiSelectAnswer(" Sim ", "Nao")))
}

func TestCheckConditionSubstring(t *testing.T) {
	dep := models.NewTextAnswer("Universidade de Pernambuco")
	assert.True(t, checkCondition(contains("Pernambuco"), dep))
	assert.False(t, checkCondition(contains("Paraiba"), dep))
}

func TestCheckConditionGridMatchesSelectedColumns(t *testing.T) {
	dep := models.NewGridAnswer(map[int]string{0: "Bom", 1: "Ruim"})

	assert.True(t, checkCondition(equals("Ruim"), dep))
	assert.False(t, checkCondition(equals("Regular"), dep))
	assert.True(t, checkCondition(contains("bo"), dep))
}

func TestCheckConditionUnknownTypeFailsClosed(t *testing.T) {
	unknown := models.Condition{Type: "matches", Value: "A"}

	assert.False(t, checkCondition(unknown, models.NewTextAnswer("A")))
	assert.False(t, checkCondition(unknown, models.NewMultiSelectAnswer("A")))
	assert.False(t, checkCondition(unknown, models.NewGridAnswer(map[int]string{0: "A"})))
}
