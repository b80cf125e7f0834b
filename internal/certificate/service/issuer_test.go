package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"avalia/internal/certificate/code"
	"avalia/internal/certificate/models"
	"avalia/internal/certificate/store"
	"avalia/internal/sentinel"
	dErrors "avalia/pkg/domain-errors"
)

func (s *ServiceSuite) TestIssueHappyPath() {
	s.seedUserAndForm()
	pdf := []byte("%PDF-1.4 rendered")
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return(pdf, nil)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), pdf).Return(nil)

	cert, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	s.Equal(s.userID, cert.UserID)
	s.Equal(s.formID, cert.FormID)
	s.True(cert.Ready)
	s.True(code.IsValidFormat(cert.ValidationCode))
	s.Equal(code.Hash(s.userID.String(), s.formID.String(), cert.ValidationCode, cert.IssuedAt), cert.Hash)
	s.Equal(s.now, cert.IssuedAt)

	s.Equal("Maria da Silva", cert.Metadata.UserName)
	s.Equal("maria@example.org", cert.Metadata.UserEmail)
	s.Equal("Avaliação Institucional 2026", cert.Metadata.FormTitle)
	s.Equal("2 horas", cert.Metadata.Workload)
	s.Equal(s.now, cert.Metadata.CompletionDate)

	stored, err := s.certs.FindByID(context.Background(), cert.ID)
	s.Require().NoError(err)
	s.True(stored.Ready)
}

func (s *ServiceSuite) TestIssueIsIdempotentPerUserAndForm() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil).Times(1)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	first, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	second, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(first.ValidationCode, second.ValidationCode)
}

func (s *ServiceSuite) TestIssueConcurrentRequestsShareOneIssuance() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil).Times(1)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	const racers = 8
	ids := make(chan uuid.UUID, racers)
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, err := s.service.Issue(context.Background(), s.userID, s.formID)
			if err != nil {
				errs <- err
				return
			}
			ids <- cert.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}
	unique := make(map[uuid.UUID]struct{})
	total := 0
	for id := range ids {
		unique[id] = struct{}{}
		total++
	}
	s.Equal(racers, total)
	s.Len(unique, 1)

	certs, err := s.certs.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(certs, 1)
}

// staleCertStore serves one stale miss from FindByUserAndForm, standing in
// for a second process whose existence check ran before the winner's commit.
type staleCertStore struct {
	*store.InMemoryStore
	mu    sync.Mutex
	stale bool
}

func (s *staleCertStore) FindByUserAndForm(ctx context.Context, userID, formID uuid.UUID) (*models.Certificate, error) {
	s.mu.Lock()
	first := !s.stale
	s.stale = true
	s.mu.Unlock()
	if first {
		return nil, sentinel.ErrNotFound
	}
	return s.InMemoryStore.FindByUserAndForm(ctx, userID, formID)
}

func (s *ServiceSuite) TestIssueConflictLoserGetsWinnersCertificate() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil).Times(1)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	winner, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	// A second process misses the winner's record, proceeds to Create and
	// loses on the uniqueness rule; the conflict is recovered as a re-read,
	// never surfaced, and nothing is rendered again.
	other := New(
		&staleCertStore{InMemoryStore: s.certs},
		s.logs,
		s.users,
		s.forms,
		s.mockRenderer,
		s.mockFiles,
		WithClock(func() time.Time { return s.now }),
	)

	cert, err := other.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.Equal(winner.ID, cert.ID)
	s.Equal(winner.ValidationCode, cert.ValidationCode)

	certs, err := s.certs.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Len(certs, 1)
}

func (s *ServiceSuite) TestIssueUnknownUser() {
	s.seedUserAndForm()
	_, err := s.service.Issue(context.Background(), uuid.New(), s.formID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestIssueUnknownForm() {
	s.seedUserAndForm()
	_, err := s.service.Issue(context.Background(), s.userID, uuid.New())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestIssueNonCertifiableForm() {
	s.seedUserAndForm()
	form, err := s.forms.FindByID(context.Background(), s.formID)
	s.Require().NoError(err)
	form.GeneratesCertificate = false
	s.Require().NoError(s.forms.Save(context.Background(), form))

	_, err = s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidOperation))
}

func (s *ServiceSuite) TestIssueRenderFailureLeavesRecordRetryable() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return(nil, errors.New("font table corrupt"))

	_, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	// The record persisted but is not downloadable yet.
	stored, err := s.certs.FindByUserAndForm(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)
	s.False(stored.Ready)

	// A later download retries the document pipeline.
	pdf := []byte("%PDF retried")
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return(pdf, nil)
	s.mockFiles.EXPECT().Write(gomock.Any(), stored.ID.String(), pdf).Return(nil)
	s.mockFiles.EXPECT().Read(gomock.Any(), stored.ID.String()).Return(pdf, nil)

	cert, data, err := s.service.Download(context.Background(), s.userID, stored.ID)
	s.Require().NoError(err)
	s.Equal(pdf, data)
	s.True(cert.Ready)
}

func (s *ServiceSuite) TestDownloadRejectsForeignCertificate() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	cert, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	_, _, err = s.service.Download(context.Background(), uuid.New(), cert.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestDownloadUnknownCertificate() {
	_, _, err := s.service.Download(context.Background(), s.userID, uuid.New())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDownloadMissingFileIsDistinctNotFound() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	cert, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	s.mockFiles.EXPECT().Read(gomock.Any(), cert.ID.String()).Return(nil, sentinel.ErrNotFound)

	_, _, err = s.service.Download(context.Background(), s.userID, cert.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Contains(err.Error(), "file not found on server")
}

func (s *ServiceSuite) TestListByUserNewestFirst() {
	s.seedUserAndForm()
	s.mockRenderer.EXPECT().Render(gomock.Any()).Return([]byte("%PDF"), nil).Times(2)
	s.mockFiles.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first, err := s.service.Issue(context.Background(), s.userID, s.formID)
	s.Require().NoError(err)

	otherFormID := uuid.New()
	s.Require().NoError(s.forms.Save(context.Background(), certifiableForm(otherFormID, "Outro ciclo")))
	s.now = s.now.Add(time.Hour)

	second, err := s.service.Issue(context.Background(), s.userID, otherFormID)
	s.Require().NoError(err)

	certs, err := s.service.ListByUser(context.Background(), s.userID)
	s.Require().NoError(err)
	s.Require().Len(certs, 2)
	s.Equal(second.ID, certs[0].ID)
	s.Equal(first.ID, certs[1].ID)
}
