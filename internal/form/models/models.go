package models

import (
	"github.com/google/uuid"
)

// QuestionType enumerates the supported question kinds. Section is a
// structural header: it renders but never collects an answer.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionMultiChoice  QuestionType = "multi_choice"
	QuestionText         QuestionType = "text"
	QuestionScale        QuestionType = "scale"
	QuestionGrid         QuestionType = "grid"
	QuestionDropdown     QuestionType = "dropdown"
	QuestionSection      QuestionType = "section"
)

// Answerable reports whether the question type collects an answer.
func (t QuestionType) Answerable() bool {
	return t != QuestionSection
}

// ConditionOperator combines the conditions of a Conditional.
type ConditionOperator string

const (
	OperatorAND ConditionOperator = "AND"
	OperatorOR  ConditionOperator = "OR"
)

// ConditionType selects how a condition compares against the dependency's answer.
type ConditionType string

const (
	ConditionEquals   ConditionType = "equals"
	ConditionContains ConditionType = "contains"
)

// Condition is a single comparison against the dependency question's answer.
type Condition struct {
	Type  ConditionType `json:"type"`
	Value string        `json:"value"`
}

// Conditional makes a question's visibility contingent on a prior question's
// answer. DependsOn must reference a question with strictly earlier order
// within the same form. The JSON field names are the persisted format written
// by the form builder and must not change.
type Conditional struct {
	DependsOn  string            `json:"dependsOn"`
	Operator   ConditionOperator `json:"operator"`
	Conditions []Condition       `json:"conditions"`
}

// Question is a single form entry. ID is stable across edits and is the key
// conditionals reference.
type Question struct {
	ID          string       `json:"id"`
	Text        string       `json:"text"`
	Description string       `json:"description,omitempty"`
	Type        QuestionType `json:"type"`
	Order       int          `json:"order"`
	Options     []string     `json:"options,omitempty"`
	Rows        []string     `json:"rows,omitempty"`
	Columns     []string     `json:"columns,omitempty"`
	Required    bool         `json:"required"`
	Conditional *Conditional `json:"conditional,omitempty"`
}

// Form aggregates ordered questions plus the display fields snapshotted into
// certificate metadata at issuance time.
type Form struct {
	ID                   uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	EstimatedTime        string     `json:"estimatedTime,omitempty"`
	GeneratesCertificate bool       `json:"generatesCertificate"`
	Questions            []Question `json:"questions"`
}

// QuestionByID returns the question with the given id, or nil.
func (f *Form) QuestionByID(id string) *Question {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i]
		}
	}
	return nil
}
