package minio

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

const (
	runPrefix = "runs/"

	metaRunID   = "run-id"
	metaCommand = "command"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrUploadFailed   = errors.New(errors.ErrCodeStorageError, "upload failed")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// ArtifactRepository stores the output files of one run under
// runs/<run id>/<file name>.
type ArtifactRepository interface {
	UploadFile(ctx context.Context, runID, command, localPath string) (*Artifact, error)
	UploadRun(ctx context.Context, runID, command string, localPaths []string) ([]*Artifact, error)
	List(ctx context.Context, runID string) ([]*Artifact, error)
	Exists(ctx context.Context, runID, name string) (bool, error)
	DeleteRun(ctx context.Context, runID string) (int, error)
	GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// Artifact describes one stored object.
type Artifact struct {
	Bucket       string
	ObjectKey    string
	ETag         string
	Size         int64
	ContentType  string
	LastModified time.Time
}

type minioRepository struct {
	client        *MinIOClient
	logger        logging.Logger
	presignExpiry time.Duration
}

// NewArtifactRepository returns an ArtifactRepository writing to client's
// results bucket.
func NewArtifactRepository(client *MinIOClient, log logging.Logger) ArtifactRepository {
	return &minioRepository{client: client, logger: log, presignExpiry: time.Hour}
}

// ObjectKey returns the key a file is stored under for runID.
func ObjectKey(runID, localPath string) string {
	return path.Join(strings.TrimSuffix(runPrefix, "/"), runID, filepath.Base(localPath))
}

// ContentTypeFor maps output file extensions to MIME types.
func ContentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tsv", ".tab":
		return "text/tab-separated-values"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".txt", ".prom":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func (r *minioRepository) UploadFile(ctx context.Context, runID, command, localPath string) (*Artifact, error) {
	if runID == "" || localPath == "" {
		return nil, ErrInvalidRequest.WithDetail("run id and path are required")
	}
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "cannot open artifact").WithDetail(localPath)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "cannot stat artifact").WithDetail(localPath)
	}

	key := ObjectKey(runID, localPath)
	contentType := ContentTypeFor(localPath)
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{metaRunID: runID, metaCommand: command},
	}

	info, err := r.client.GetClient().PutObject(ctx, r.client.Bucket(), key, f, st.Size(), opts)
	if err != nil {
		return nil, ErrUploadFailed.WithDetail(key).WithCause(err)
	}

	r.logger.Debug("Artifact uploaded", logging.String("key", key), logging.Int64("size", info.Size))
	return &Artifact{
		Bucket:       r.client.Bucket(),
		ObjectKey:    key,
		ETag:         info.ETag,
		Size:         info.Size,
		ContentType:  contentType,
		LastModified: time.Now(),
	}, nil
}

// UploadRun uploads every path, stopping at the first failure.
func (r *minioRepository) UploadRun(ctx context.Context, runID, command string, localPaths []string) ([]*Artifact, error) {
	out := make([]*Artifact, 0, len(localPaths))
	for _, p := range localPaths {
		a, err := r.UploadFile(ctx, runID, command, p)
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *minioRepository) List(ctx context.Context, runID string) ([]*Artifact, error) {
	opts := minio.ListObjectsOptions{Prefix: runPrefix + runID + "/", Recursive: true}
	var out []*Artifact
	for obj := range r.client.GetClient().ListObjects(ctx, r.client.Bucket(), opts) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "list failed")
		}
		out = append(out, &Artifact{
			Bucket:       r.client.Bucket(),
			ObjectKey:    obj.Key,
			ETag:         obj.ETag,
			Size:         obj.Size,
			ContentType:  ContentTypeFor(obj.Key),
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func (r *minioRepository) Exists(ctx context.Context, runID, name string) (bool, error) {
	_, err := r.client.GetClient().StatObject(ctx, r.client.Bucket(), ObjectKey(runID, name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

// DeleteRun removes every object of runID and returns how many were removed.
func (r *minioRepository) DeleteRun(ctx context.Context, runID string) (int, error) {
	artifacts, err := r.List(ctx, runID)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, a := range artifacts {
		if err := r.client.GetClient().RemoveObject(ctx, r.client.Bucket(), a.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
			return removed, errors.Wrap(err, errors.ErrCodeStorageError, "delete failed").WithDetail(a.ObjectKey)
		}
		removed++
	}
	return removed, nil
}

func (r *minioRepository) GetPresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if expiry == 0 {
		expiry = r.presignExpiry
	}
	u, err := r.client.GetClient().PresignedGetObject(ctx, r.client.Bucket(), objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "presign failed")
	}
	return u.String(), nil
}
