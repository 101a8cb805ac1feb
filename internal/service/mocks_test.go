package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/formbricks/gallery/internal/jobs"
	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/repository"
	"github.com/formbricks/gallery/internal/storage"
)

// bagOfWordsEmbedder embeds text by counting words over a tiny concept vocabulary.
type bagOfWordsEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

var concepts = map[string]int{
	"red": 0, "blue": 1,
	"car": 2, "truck": 2, "vehicle": 2,
	"sky": 3, "dog": 4, "cat": 5,
}

func (e *bagOfWordsEmbedder) Embed(_ context.Context, text string) ([]float32, bool) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.fail || strings.TrimSpace(text) == "" {
		return nil, false
	}

	v := make([]float32, 6)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if i, ok := concepts[word]; ok {
			v[i]++
		}
	}

	return v, true
}

func (e *bagOfWordsEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.calls
}

// memRepo is an in-memory ImageRecordsRepository. The func fields override individual methods.
type memRepo struct {
	mu      sync.Mutex
	records []models.ImageRecord

	loadAllFunc func(ctx context.Context) ([]models.ImageRecord, error)
	appendFunc  func(ctx context.Context, record models.ImageRecord) error
	updateFunc  func(ctx context.Context, id, description string) error
}

func (m *memRepo) Append(ctx context.Context, record models.ImageRecord) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, record)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.ID == record.ID {
			return repository.ErrDuplicateID
		}
	}

	m.records = append(m.records, record)

	return nil
}

func (m *memRepo) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.ImageRecord(nil), m.records...), nil
}

func (m *memRepo) Get(_ context.Context, id string) (*models.ImageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == id {
			record := m.records[i]

			return &record, nil
		}
	}

	return nil, repository.ErrRecordNotFound
}

func (m *memRepo) UpdateDescription(ctx context.Context, id, description string) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, description)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].Description = description

			return nil
		}
	}

	return repository.ErrRecordNotFound
}

func (m *memRepo) snapshot() []models.ImageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.ImageRecord(nil), m.records...)
}

type mockCaptioner struct {
	describeFunc func(ctx context.Context, image []byte) (string, error)
}

func (m *mockCaptioner) Describe(ctx context.Context, image []byte) (string, error) {
	if m.describeFunc != nil {
		return m.describeFunc(ctx, image)
	}

	return "a red car", nil
}

type readSeekNopCloser struct {
	*bytes.Reader
}

func (readSeekNopCloser) Close() error { return nil }

// memStore is an in-memory ImageStore.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[name] = data

	return nil
}

func (s *memStore) Open(_ context.Context, name string) (*storage.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &storage.Object{
		ReadSeekCloser: readSeekNopCloser{bytes.NewReader(data)},
		Size:           int64(len(data)),
		ContentType:    "image/png",
	}, nil
}

func (s *memStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, name)

	return nil
}

func (s *memStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[name]

	return ok
}

type mockInserter struct {
	mu       sync.Mutex
	enqueued []jobs.IngestionArgs
	err      error
}

func (m *mockInserter) Enqueue(_ context.Context, args jobs.IngestionArgs) error {
	if m.err != nil {
		return m.err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.enqueued = append(m.enqueued, args)

	return nil
}

type countingCacheMetrics struct {
	mu           sync.Mutex
	hits, misses int
}

func (c *countingCacheMetrics) RecordHit(context.Context, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
}

func (c *countingCacheMetrics) RecordMiss(context.Context, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses++
}

var errBoom = errors.New("boom")
