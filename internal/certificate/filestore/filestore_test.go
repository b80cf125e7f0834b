package filestore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"avalia/internal/certificate/filestore"
	"avalia/internal/sentinel"
)

type OSStoreSuite struct {
	suite.Suite
	dir   string
	store *filestore.OSStore
}

func TestOSStoreSuite(t *testing.T) {
	suite.Run(t, new(OSStoreSuite))
}

func (s *OSStoreSuite) SetupTest() {
	s.dir = s.T().TempDir()
	store, err := filestore.NewOSStore(s.dir)
	s.Require().NoError(err)
	s.store = store
}

func (s *OSStoreSuite) TestWriteAndRead() {
	ctx := context.Background()
	err := s.store.Write(ctx, "cert-1", []byte("%PDF-1.4 test"))
	s.Require().NoError(err)

	data, err := s.store.Read(ctx, "cert-1")
	s.Require().NoError(err)
	s.Equal([]byte("%PDF-1.4 test"), data)

	exists, err := s.store.Exists(ctx, "cert-1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *OSStoreSuite) TestReadMissing() {
	_, err := s.store.Read(context.Background(), "missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.store.Exists(context.Background(), "missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *OSStoreSuite) TestRejectsPathTraversal() {
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		s.Require().ErrorIs(s.store.Write(ctx, key, []byte("x")), sentinel.ErrInvalidInput)
		_, err := s.store.Read(ctx, key)
		s.Require().ErrorIs(err, sentinel.ErrInvalidInput)
	}
}

func (s *OSStoreSuite) TestOverwriteReplacesContent() {
	ctx := context.Background()
	s.Require().NoError(s.store.Write(ctx, "cert-1", []byte("v1")))
	s.Require().NoError(s.store.Write(ctx, "cert-1", []byte("v2")))

	data, err := s.store.Read(ctx, "cert-1")
	s.Require().NoError(err)
	s.Equal([]byte("v2"), data)
}

func (s *OSStoreSuite) TestNoTempFilesLeftBehind() {
	ctx := context.Background()
	s.Require().NoError(s.store.Write(ctx, "cert-1", []byte("data")))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("cert-1.pdf", entries[0].Name())
}

func (s *OSStoreSuite) TestConcurrentWritesSameKey() {
	ctx := context.Background()
	errs := make(chan error, 16)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		payload := []byte(fmt.Sprintf("payload-%d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Write(ctx, "cert-1", payload)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	data, err := s.store.Read(ctx, "cert-1")
	s.Require().NoError(err)
	s.Contains(string(data), "payload-")
	s.FileExists(filepath.Join(s.dir, "cert-1.pdf"))
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := filestore.NewInMemoryStore()

	_, err := store.Read(ctx, "a")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Write(ctx, "a", []byte("doc")))
	data, err := store.Read(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("doc"), data)

	exists, err := store.Exists(ctx, "a")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 1, store.Len())
}
