package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	certmodels "avalia/internal/certificate/models"
	formmodels "avalia/internal/form/models"
	formstore "avalia/internal/form/store"
	"avalia/internal/response/store"
	usermodels "avalia/internal/user/models"
	userstore "avalia/internal/user/store"
	dErrors "avalia/pkg/domain-errors"
)

// stubIssuer records issuance calls and returns a canned result.
type stubIssuer struct {
	cert  *certmodels.Certificate
	err   error
	calls int
}

func (f *stubIssuer) Issue(_ context.Context, userID, formID uuid.UUID) (*certmodels.Certificate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.cert == nil {
		f.cert = &certmodels.Certificate{ID: uuid.New(), UserID: userID, FormID: formID}
	}
	return f.cert, nil
}

type SubmitSuite struct {
	suite.Suite
	responses *store.InMemoryStore
	forms     *formstore.InMemoryStore
	users     *userstore.InMemoryStore
	issuer    *stubIssuer
	service   *Service

	userID uuid.UUID
	formID uuid.UUID
}

func TestSubmitSuite(t *testing.T) {
	suite.Run(t, new(SubmitSuite))
}

func (s *SubmitSuite) SetupTest() {
	s.responses = store.NewInMemoryStore()
	s.forms = formstore.NewInMemoryStore()
	s.users = userstore.NewInMemoryStore()
	s.issuer = &stubIssuer{}
	s.service = New(s.responses, s.forms, s.users,
		WithCertificateIssuer(s.issuer),
		WithClock(func() time.Time { return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC) }),
	)

	s.userID = uuid.New()
	s.formID = uuid.New()

	s.Require().NoError(s.users.Save(context.Background(), &usermodels.User{
		ID:    s.userID,
		Name:  "Maria da Silva",
		Email: "maria@example.org",
	}))
	s.Require().NoError(s.forms.Save(context.Background(), s.evaluationForm()))
}

// evaluationForm has a required gate question and a follow-up that is only
// visible when the gate was answered "Sim".
func (s *SubmitSuite) evaluationForm() *formmodels.Form {
	return &formmodels.Form{
		ID:                   s.formID,
		Title:                "Avaliação Institucional 2026",
		GeneratesCertificate: true,
		Questions: []formmodels.Question{
			{
				ID:       "q1",
				Text:     "Você participou de algum evento?",
				Type:     formmodels.QuestionSingleChoice,
				Order:    1,
				Options:  []string{"Sim", "Não"},
				Required: true,
			},
			{
				ID:       "q2",
				Text:     "Qual evento?",
				Type:     formmodels.QuestionText,
				Order:    2,
				Required: true,
				Conditional: &formmodels.Conditional{
					DependsOn: "q1",
					Conditions: []formmodels.Condition{
						{Type: formmodels.ConditionEquals, Value: "Sim"},
					},
				},
			},
			{
				ID:    "q3",
				Text:  "Comentários",
				Type:  formmodels.QuestionText,
				Order: 3,
			},
		},
	}
}

func (s *SubmitSuite) TestSubmitStoresAnswersAndIssuesCertificate() {
	answers := formmodels.ResponseMap{
		"q1": formmodels.NewTextAnswer("Sim"),
		"q2": formmodels.NewTextAnswer("Semana Universitária"),
		"q3": formmodels.NewTextAnswer("ótimo"),
	}

	result, err := s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().NoError(err)
	s.Equal(3, result.AnswersStored)
	s.Require().NotNil(result.Certificate)
	s.Equal(1, s.issuer.calls)

	stored, err := s.responses.ListByUserAndForm(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.Len(stored, 3)
}

func (s *SubmitSuite) TestSubmitDropsAnswersOfHiddenQuestions() {
	// q1 answered "Não" hides q2; a stale q2 answer must not be stored and
	// q2's required flag must not block the submission.
	answers := formmodels.ResponseMap{
		"q1": formmodels.NewTextAnswer("Não"),
		"q2": formmodels.NewTextAnswer("stale"),
	}

	result, err := s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().NoError(err)
	s.Equal(1, result.AnswersStored)

	stored, err := s.responses.ListByUserAndForm(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.Equal("q1", stored[0].QuestionID)
}

func (s *SubmitSuite) TestSubmitRejectsMissingRequiredVisibleQuestion() {
	answers := formmodels.ResponseMap{
		"q1": formmodels.NewTextAnswer("Sim"),
		// q2 is visible and required but unanswered
	}

	_, err := s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "q2")
}

func (s *SubmitSuite) TestSubmitRejectsDuplicate() {
	answers := formmodels.ResponseMap{"q1": formmodels.NewTextAnswer("Não")}

	_, err := s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().NoError(err)

	_, err = s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// racingStore mimics a concurrent submission landing between the
// HasSubmitted check and CreateAll: the check misses but the store's
// uniqueness rule still stops the insert.
type racingStore struct {
	*store.InMemoryStore
}

func (r *racingStore) HasSubmitted(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (s *SubmitSuite) TestSubmitRaceLoserGetsConflict() {
	racing := &racingStore{InMemoryStore: s.responses}
	svc := New(racing, s.forms, s.users)
	answers := formmodels.ResponseMap{"q1": formmodels.NewTextAnswer("Não")}

	_, err := svc.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().NoError(err)

	_, err = svc.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	stored, err := s.responses.ListByUserAndForm(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.Len(stored, 1)
}

func (s *SubmitSuite) TestSubmitUnknownFormAndUser() {
	answers := formmodels.ResponseMap{"q1": formmodels.NewTextAnswer("Não")}

	_, err := s.service.Submit(context.Background(), s.userID, uuid.New(), answers)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Submit(context.Background(), uuid.New(), s.formID, answers)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *SubmitSuite) TestSubmitSurvivesIssuanceFailure() {
	s.issuer.err = errors.New("renderer down")
	answers := formmodels.ResponseMap{"q1": formmodels.NewTextAnswer("Não")}

	result, err := s.service.Submit(context.Background(), s.userID, s.formID, answers)
	s.Require().NoError(err)
	s.Nil(result.Certificate)
	s.Equal(1, result.AnswersStored)
}
