package stages

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/a11yflow/pdf-accessibility/internal/gcp"
	"github.com/a11yflow/pdf-accessibility/internal/models"
)

// fakeObject is one stored object in the in-memory store.
type fakeObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// fakeStore is an in-memory gcp.ObjectStore for stage tests. Error
// hooks let individual tests inject infrastructure failures.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject

	attrsErr    error
	readErr     error
	downloadErr error
	listErr     error
	writeErr    func(bucket, name string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]fakeObject{}}
}

func (f *fakeStore) put(bucket, name string, data []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+name] = fakeObject{data: data, contentType: contentType}
}

func (f *fakeStore) get(bucket, name string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket+"/"+name]
	return obj, ok
}

func (f *fakeStore) Attrs(_ context.Context, bucket, name string) (*gcp.ObjectInfo, error) {
	if f.attrsErr != nil {
		return nil, f.attrsErr
	}
	obj, ok := f.get(bucket, name)
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return &gcp.ObjectInfo{
		Bucket:      bucket,
		Name:        name,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

func (f *fakeStore) ReadRange(_ context.Context, bucket, name string, offset, length int64) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	obj, ok := f.get(bucket, name)
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	end := offset + length
	if end > int64(len(obj.data)) {
		end = int64(len(obj.data))
	}
	if offset > end {
		return nil, nil
	}
	return obj.data[offset:end], nil
}

func (f *fakeStore) DownloadToFile(_ context.Context, bucket, name, destPath string) (int64, error) {
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	obj, ok := f.get(bucket, name)
	if !ok {
		return 0, gcp.ErrObjectNotFound
	}
	if err := os.WriteFile(destPath, obj.data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(obj.data)), nil
}

func (f *fakeStore) Write(_ context.Context, bucket, name string, data []byte, contentType string, metadata map[string]string) error {
	if f.writeErr != nil {
		if err := f.writeErr(bucket, name); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+name] = fakeObject{data: data, contentType: contentType, metadata: metadata}
	return nil
}

func (f *fakeStore) List(_ context.Context, bucket, prefix string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for key := range f.objects {
		rest, ok := strings.CutPrefix(key, bucket+"/")
		if !ok {
			continue
		}
		if strings.HasPrefix(rest, prefix) {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

// testState builds a JobState for the given source object.
func testState(bucket, key string) *models.JobState {
	return &models.JobState{
		Job: models.Job{
			JobID:     "job-20260823-120000-deadbeef",
			Bucket:    bucket,
			Key:       key,
			Timestamp: "2026-08-23T12:00:00Z",
			RequestID: "req-1",
		},
	}
}

var _ gcp.ObjectStore = (*fakeStore)(nil)

// fakePDF returns bytes that pass the signature check but are not a
// parseable PDF.
func fakePDF(size int) []byte {
	data := []byte("%PDF-1.4\n")
	for len(data) < size {
		data = append(data, []byte(fmt.Sprintf("%% filler line %d\n", len(data)))...)
	}
	return data[:size]
}
