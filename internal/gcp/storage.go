package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// ErrObjectNotFound is returned when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo holds the object attributes the pipeline cares about.
type ObjectInfo struct {
	Bucket      string
	Name        string
	Size        int64
	ContentType string
	ETag        string
}

// ObjectStore is the narrow object-storage contract the stages depend
// on. The production implementation is Store (GCS); tests substitute an
// in-memory fake.
type ObjectStore interface {
	// Attrs fetches object attributes without reading the body.
	Attrs(ctx context.Context, bucket, name string) (*ObjectInfo, error)

	// ReadRange reads length bytes starting at offset.
	ReadRange(ctx context.Context, bucket, name string, offset, length int64) ([]byte, error)

	// DownloadToFile streams the object to destPath and reports the
	// number of bytes written.
	DownloadToFile(ctx context.Context, bucket, name, destPath string) (int64, error)

	// Write stores data under bucket/name with the given content type
	// and object metadata. Writing an object that already exists is
	// treated as success: jobIds are unique, so a duplicate write can
	// only come from a retried stage invocation.
	Write(ctx context.Context, bucket, name string, data []byte, contentType string, metadata map[string]string) error

	// List returns the names of all objects under prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// Store implements ObjectStore against Google Cloud Storage.
type Store struct {
	client *storage.Client
}

// NewStore creates a GCS-backed object store.
func NewStore(ctx context.Context) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Attrs(ctx context.Context, bucket, name string) (*ObjectInfo, error) {
	attrs, err := s.client.Bucket(bucket).Object(name).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat gs://%s/%s: %w", bucket, name, err)
	}
	return &ObjectInfo{
		Bucket:      bucket,
		Name:        name,
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		ETag:        attrs.Etag,
	}, nil
}

func (s *Store) ReadRange(ctx context.Context, bucket, name string, offset, length int64) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(name).NewRangeReader(ctx, offset, length)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open range reader for gs://%s/%s: %w", bucket, name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, name, err)
	}
	return data, nil
}

func (s *Store) DownloadToFile(ctx context.Context, bucket, name, destPath string) (int64, error) {
	reader, err := s.client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("failed to get reader for gs://%s/%s: %w", bucket, name, err)
	}
	defer reader.Close()

	localFile, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create local file at %s: %w", destPath, err)
	}
	defer localFile.Close()

	written, err := io.Copy(localFile, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to copy gs://%s/%s to local file: %w", bucket, name, err)
	}
	return written, nil
}

func (s *Store) Write(ctx context.Context, bucket, name string, data []byte, contentType string, metadata map[string]string) error {
	writer := s.client.Bucket(bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = metadata

	if _, err := io.Copy(writer, strings.NewReader(string(data))); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to write gs://%s/%s: %w", bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			return nil
		}
		return fmt.Errorf("failed to finalize write of gs://%s/%s: %w", bucket, name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// isPreconditionFailed reports whether err is a 412 from a
// DoesNotExist-conditional write, meaning the object already exists.
func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 412
}
