package memory

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"mathemania-service/internal/domain"
)

// ObjectStore keeps uploaded objects in memory (tests, local runs).
type ObjectStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is an object held by ObjectStore.
type StoredObject struct {
	ContentType string
	Data        []byte
}

func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{baseURL: baseURL, objects: make(map[string]StoredObject)}
}

func (s *ObjectStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = StoredObject{ContentType: contentType, Data: buf.Bytes()}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *ObjectStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", domain.ErrNotFound
	}
	q := url.Values{}
	q.Set("expires", time.Now().Add(expiry).UTC().Format(time.RFC3339))
	return s.baseURL + "/" + key + "?" + q.Encode(), nil
}

// Object returns a stored object.
func (s *ObjectStore) Object(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}
