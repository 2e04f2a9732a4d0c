// Package gcs stores result payloads in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/ganot/report-results/internal/blob"
	"github.com/ganot/report-results/internal/repository"
)

// Config selects the bucket and object prefix.
type Config struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// BlobStore implements result.BlobStore over GCS objects named
// <prefix>/<ref>.
type BlobStore struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	logger *slog.Logger
}

// New connects to GCS. Credentials come from CredentialsFile when set,
// otherwise from the environment's default credentials.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*BlobStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating storage client: %w", err)
	}
	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient wraps an existing storage client.
func NewWithClient(client *storage.Client, cfg Config, logger *slog.Logger) *BlobStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BlobStore{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger.With("component", "gcs", "bucket", cfg.Bucket),
	}
}

// Close releases the storage client.
func (s *BlobStore) Close() error {
	return s.client.Close()
}

// Put uploads data unless an object with the same content already exists.
func (s *BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	ref := blob.Ref(data)
	obj := s.bucket.Object(s.key(ref)).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: writing %s: %w", ref, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			s.logger.Debug("blob already stored", "ref", ref)
			return ref, nil
		}
		return "", fmt.Errorf("gcs: closing writer for %s: %w", ref, err)
	}
	return ref, nil
}

// Get downloads the bytes of a blob.
func (s *BlobStore) Get(ctx context.Context, ref string) ([]byte, error) {
	key, err := s.checkedKey(ref)
	if err != nil {
		return nil, err
	}
	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gcs: opening %s: %w", ref, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs: reading %s: %w", ref, err)
	}
	return data, nil
}

// Size returns the object size from its metadata.
func (s *BlobStore) Size(ctx context.Context, ref string) (int64, error) {
	attrs, err := s.attrs(ctx, ref)
	if err != nil {
		return 0, err
	}
	return attrs.Size, nil
}

// Exists reports whether the object is present.
func (s *BlobStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.attrs(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *BlobStore) attrs(ctx context.Context, ref string) (*storage.ObjectAttrs, error) {
	key, err := s.checkedKey(ref)
	if err != nil {
		return nil, err
	}
	attrs, err := s.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("gcs: reading attrs of %s: %w", ref, err)
	}
	return attrs, nil
}

// checkedKey maps a ref to its object key. Refs that Ref could not have
// produced are reported as missing rather than sent to the bucket.
func (s *BlobStore) checkedKey(ref string) (string, error) {
	if !blob.ValidRef(ref) {
		return "", repository.ErrNotFound
	}
	return s.key(ref), nil
}

func (s *BlobStore) key(ref string) string {
	return ObjectKey(s.prefix, ref)
}

// ObjectKey returns the object name for ref under prefix.
func ObjectKey(prefix, ref string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ref
	}
	return path.Join(prefix, ref)
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
