package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"avalia/internal/certificate/models"
	"avalia/internal/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) newCertificate() *models.Certificate {
	return &models.Certificate{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		FormID:         uuid.New(),
		ValidationCode: "UPE-CPA-" + uuid.New().String()[:5] + "-2024",
		Hash:           "deadbeef",
		Metadata: models.Metadata{
			CompletionDate: time.Now().UTC(),
			FormTitle:      "Avaliacao Institucional",
			UserName:       "Jane Doe",
			UserEmail:      "jane.doe@example.com",
		},
		IssuedAt: time.Now().UTC(),
	}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	cert := s.newCertificate()
	require.NoError(s.T(), s.store.Create(context.Background(), cert))

	byID, err := s.store.FindByID(context.Background(), cert.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), cert, byID)

	byPair, err := s.store.FindByUserAndForm(context.Background(), cert.UserID, cert.FormID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), cert.ID, byPair.ID)

	byCode, err := s.store.FindByValidationCode(context.Background(), cert.ValidationCode)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), cert.ID, byCode.ID)
}

func (s *InMemoryStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	_, err = s.store.FindByUserAndForm(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	_, err = s.store.FindByValidationCode(context.Background(), "UPE-CPA-ZZZZZ-9999")
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestCreateDuplicatePairConflicts() {
	cert := s.newCertificate()
	require.NoError(s.T(), s.store.Create(context.Background(), cert))

	dup := s.newCertificate()
	dup.UserID = cert.UserID
	dup.FormID = cert.FormID
	assert.ErrorIs(s.T(), s.store.Create(context.Background(), dup), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestCreateDuplicateCodeConflicts() {
	cert := s.newCertificate()
	require.NoError(s.T(), s.store.Create(context.Background(), cert))

	dup := s.newCertificate()
	dup.ValidationCode = cert.ValidationCode
	assert.ErrorIs(s.T(), s.store.Create(context.Background(), dup), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestMarkReady() {
	cert := s.newCertificate()
	require.NoError(s.T(), s.store.Create(context.Background(), cert))

	require.NoError(s.T(), s.store.MarkReady(context.Background(), cert.ID))

	found, err := s.store.FindByID(context.Background(), cert.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), found.Ready)

	assert.ErrorIs(s.T(), s.store.MarkReady(context.Background(), uuid.New()), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestListByUserNewestFirst() {
	userID := uuid.New()
	older := s.newCertificate()
	older.UserID = userID
	older.IssuedAt = time.Now().Add(-time.Hour)
	newer := s.newCertificate()
	newer.UserID = userID

	require.NoError(s.T(), s.store.Create(context.Background(), older))
	require.NoError(s.T(), s.store.Create(context.Background(), newer))
	require.NoError(s.T(), s.store.Create(context.Background(), s.newCertificate()))

	certs, err := s.store.ListByUser(context.Background(), userID)
	require.NoError(s.T(), err)
	require.Len(s.T(), certs, 2)
	assert.Equal(s.T(), newer.ID, certs[0].ID)
	assert.Equal(s.T(), older.ID, certs[1].ID)
}

type InMemoryValidationLogStoreSuite struct {
	suite.Suite
	store *InMemoryValidationLogStore
}

func (s *InMemoryValidationLogStoreSuite) SetupTest() {
	s.store = NewInMemoryValidationLogStore()
}

func (s *InMemoryValidationLogStoreSuite) TestAppendAndList() {
	certificateID := uuid.New()
	entry := &models.ValidationLog{
		ID:            uuid.New(),
		CertificateID: certificateID,
		IPAddress:     "203.0.113.7",
		UserAgent:     "Mozilla/5.0",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(s.T(), s.store.Append(context.Background(), entry))
	require.NoError(s.T(), s.store.Append(context.Background(), &models.ValidationLog{
		ID:            uuid.New(),
		CertificateID: uuid.New(),
	}))

	entries, err := s.store.ListByCertificate(context.Background(), certificateID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), entry, entries[0])
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func TestInMemoryValidationLogStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryValidationLogStoreSuite))
}
