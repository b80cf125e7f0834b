// Package seeder populates the stores with demo data for local development:
// a demo user and an evaluation form with conditional questions.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	formmodels "avalia/internal/form/models"
	usermodels "avalia/internal/user/models"
)

// Stable demo ids so restarting the server keeps tokens and links working.
var (
	DemoUserID = uuid.MustParse("a3bb1896-43a4-4a6b-9d1f-0f2b9a8c1d01")
	DemoFormID = uuid.MustParse("f2c5e6d0-8e0e-45b5-9a41-2f7d3c4b5a02")
)

// UserStore defines methods for seeding users.
type UserStore interface {
	Save(ctx context.Context, user *usermodels.User) error
}

// FormStore defines methods for seeding forms.
type FormStore interface {
	Save(ctx context.Context, form *formmodels.Form) error
}

// Seeder populates stores with demo data.
type Seeder struct {
	users  UserStore
	forms  FormStore
	logger *slog.Logger
}

// New creates a new seeder.
func New(users UserStore, forms FormStore, logger *slog.Logger) *Seeder {
	return &Seeder{users: users, forms: forms, logger: logger}
}

// SeedAll populates all stores with demo data.
func (s *Seeder) SeedAll(ctx context.Context) error {
	if err := s.users.Save(ctx, demoUser()); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	if err := s.forms.Save(ctx, demoForm()); err != nil {
		return fmt.Errorf("seed demo form: %w", err)
	}

	s.logger.Info("demo data seeded",
		"user_id", DemoUserID,
		"form_id", DemoFormID,
	)
	return nil
}

func demoUser() *usermodels.User {
	return &usermodels.User{
		ID:    DemoUserID,
		Name:  "Maria da Silva",
		Email: "maria.silva@example.org",
	}
}

func demoForm() *formmodels.Form {
	return &formmodels.Form{
		ID:                   DemoFormID,
		Title:                "Autoavaliação Institucional 2026",
		Description:          "Ciclo anual de autoavaliação conduzido pela CPA",
		EstimatedTime:        "2 horas",
		GeneratesCertificate: true,
		Questions: []formmodels.Question{
			{
				ID:    "sec-participacao",
				Text:  "Participação",
				Type:  formmodels.QuestionSection,
				Order: 1,
			},
			{
				ID:       "participou-evento",
				Text:     "Você participou de algum evento institucional neste ciclo?",
				Type:     formmodels.QuestionSingleChoice,
				Order:    2,
				Options:  []string{"Sim", "Não"},
				Required: true,
			},
			{
				ID:       "qual-evento",
				Text:     "Quais eventos você frequentou?",
				Type:     formmodels.QuestionMultiChoice,
				Order:    3,
				Options:  []string{"Semana Universitária", "Colação", "Seminário de Pesquisa"},
				Required: true,
				Conditional: &formmodels.Conditional{
					DependsOn: "participou-evento",
					Conditions: []formmodels.Condition{
						{Type: formmodels.ConditionEquals, Value: "Sim"},
					},
				},
			},
			{
				ID:      "avaliacao-geral",
				Text:    "Como você avalia a instituição em cada aspecto?",
				Type:    formmodels.QuestionGrid,
				Order:   4,
				Rows:    []string{"Infraestrutura", "Atendimento", "Ensino"},
				Columns: []string{"Ruim", "Regular", "Bom", "Ótimo"},
			},
			{
				ID:    "comentarios",
				Text:  "Comentários adicionais",
				Type:  formmodels.QuestionText,
				Order: 5,
			},
		},
	}
}
