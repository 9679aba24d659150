package minio

import (
	"context"
	stderrors "errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

type ArtifactRepositoryTestSuite struct {
	suite.Suite
	api    *MockMinIOAPI
	client *MinIOClient
	repo   ArtifactRepository
	dir    string
}

func (s *ArtifactRepositoryTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.client = newTestClient(s.api, 0)
	s.repo = NewArtifactRepository(s.client, logging.NewNopLogger())
	s.dir = s.T().TempDir()
}

func (s *ArtifactRepositoryTestSuite) writeFile(name, content string) string {
	p := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(p, []byte(content), 0o644))
	return p
}

func objectChan(objs ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(objs))
	for _, o := range objs {
		ch <- o
	}
	close(ch)
	return ch
}

func (s *ArtifactRepositoryTestSuite) TestUploadFile_Success() {
	p := s.writeFile("nodes_summary.tsv", "a\tb\n1\t2\n")
	s.api.On("PutObject", mock.Anything, "results", "runs/r1/nodes_summary.tsv", mock.Anything, int64(8),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "text/tab-separated-values" && o.UserMetadata["run-id"] == "r1" && o.UserMetadata["command"] == "classes"
		})).Return(minio.UploadInfo{ETag: "etag", Size: 8}, nil)

	a, err := s.repo.UploadFile(context.Background(), "r1", "classes", p)

	s.Require().NoError(err)
	s.Equal("runs/r1/nodes_summary.tsv", a.ObjectKey)
	s.Equal("etag", a.ETag)
	s.Equal(int64(8), a.Size)
	s.api.AssertExpectations(s.T())
}

func (s *ArtifactRepositoryTestSuite) TestUploadFile_Validation() {
	_, err := s.repo.UploadFile(context.Background(), "", "classes", "x.tsv")
	s.True(stderrors.Is(err, ErrInvalidRequest))

	_, err = s.repo.UploadFile(context.Background(), "r1", "classes", filepath.Join(s.dir, "missing.tsv"))
	s.True(errors.IsCode(err, errors.ErrCodeNotFound))
}

func (s *ArtifactRepositoryTestSuite) TestUploadFile_Closed() {
	p := s.writeFile("a.tsv", "x")
	s.Require().NoError(s.client.Close())

	_, err := s.repo.UploadFile(context.Background(), "r1", "classes", p)
	s.Equal(ErrMinIOClientClosed, err)
}

func (s *ArtifactRepositoryTestSuite) TestUploadRun_StopsOnFailure() {
	a := s.writeFile("a.tsv", "x")
	b := s.writeFile("b.tsv", "y")
	c := s.writeFile("c.tsv", "z")
	s.api.On("PutObject", mock.Anything, "results", "runs/r1/a.tsv", mock.Anything, int64(1), mock.Anything).Return(minio.UploadInfo{Size: 1}, nil)
	s.api.On("PutObject", mock.Anything, "results", "runs/r1/b.tsv", mock.Anything, int64(1), mock.Anything).Return(minio.UploadInfo{}, stderrors.New("quota"))

	out, err := s.repo.UploadRun(context.Background(), "r1", "motifs", []string{a, b, c})

	s.True(stderrors.Is(err, ErrUploadFailed))
	s.Len(out, 1)
	s.api.AssertNotCalled(s.T(), "PutObject", mock.Anything, "results", "runs/r1/c.tsv", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ArtifactRepositoryTestSuite) TestList() {
	now := time.Now()
	s.api.On("ListObjects", mock.Anything, "results", minio.ListObjectsOptions{Prefix: "runs/r1/", Recursive: true}).
		Return(objectChan(
			minio.ObjectInfo{Key: "runs/r1/a.tsv", Size: 3, LastModified: now},
			minio.ObjectInfo{Key: "runs/r1/m.csv", Size: 4, LastModified: now},
		))

	out, err := s.repo.List(context.Background(), "r1")

	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal("text/csv", out[1].ContentType)
}

func (s *ArtifactRepositoryTestSuite) TestList_Error() {
	s.api.On("ListObjects", mock.Anything, "results", mock.Anything).
		Return(objectChan(minio.ObjectInfo{Err: stderrors.New("boom")}))

	_, err := s.repo.List(context.Background(), "r1")
	s.True(errors.IsCode(err, errors.ErrCodeStorageError))
}

func (s *ArtifactRepositoryTestSuite) TestExists() {
	s.api.On("StatObject", mock.Anything, "results", "runs/r1/a.tsv", mock.Anything).Return(minio.ObjectInfo{Key: "runs/r1/a.tsv"}, nil)
	s.api.On("StatObject", mock.Anything, "results", "runs/r1/b.tsv", mock.Anything).
		Return(minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"})

	ok, err := s.repo.Exists(context.Background(), "r1", "a.tsv")
	s.NoError(err)
	s.True(ok)

	ok, err = s.repo.Exists(context.Background(), "r1", "b.tsv")
	s.NoError(err)
	s.False(ok)
}

func (s *ArtifactRepositoryTestSuite) TestDeleteRun() {
	s.api.On("ListObjects", mock.Anything, "results", mock.Anything).
		Return(objectChan(minio.ObjectInfo{Key: "runs/r1/a.tsv"}, minio.ObjectInfo{Key: "runs/r1/b.tsv"}))
	s.api.On("RemoveObject", mock.Anything, "results", mock.Anything, mock.Anything).Return(nil)

	n, err := s.repo.DeleteRun(context.Background(), "r1")

	s.NoError(err)
	s.Equal(2, n)
	s.api.AssertNumberOfCalls(s.T(), "RemoveObject", 2)
}

func (s *ArtifactRepositoryTestSuite) TestGetPresignedDownloadURL() {
	u, _ := url.Parse("http://localhost:9000/results/runs/r1/a.tsv?sig=1")
	s.api.On("PresignedGetObject", mock.Anything, "results", "runs/r1/a.tsv", time.Hour, url.Values(nil)).Return(u, nil)

	got, err := s.repo.GetPresignedDownloadURL(context.Background(), "runs/r1/a.tsv", 0)

	s.NoError(err)
	s.Equal(u.String(), got)
}

func TestArtifactRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ArtifactRepositoryTestSuite))
}

func TestObjectKeyAndContentType(t *testing.T) {
	assert.Equal(t, "runs/r1/summary.tsv", ObjectKey("r1", "/tmp/out/summary.tsv"))
	assert.Equal(t, "text/tab-separated-values", ContentTypeFor("x.TSV"))
	assert.Equal(t, "text/plain", ContentTypeFor("metrics.prom"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("x.bin"))
	require.Equal(t, "text/csv", ContentTypeFor("x.csv"))
}
