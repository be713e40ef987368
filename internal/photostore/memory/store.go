// Package memory implements an in-memory PhotoStore for tests and local
// experiments.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/photostore"
)

type entry struct {
	obj  domain.Object
	data []byte
}

type Store struct {
	mu      sync.RWMutex
	objs    map[string]entry
	baseURL string
	now     func() time.Time
}

// New returns an empty store whose URLs are rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{objs: make(map[string]entry), baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// SetClock overrides the clock used for LastModified.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (domain.Object, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return domain.Object{}, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return domain.Object{}, err
	}
	if contentType == "" {
		contentType = photostore.ContentTypeForKey(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	obj := domain.Object{Key: key, Size: int64(len(b)), ContentType: contentType, LastModified: s.now().UTC()}
	s.objs[key] = entry{obj: obj, data: b}
	return obj, nil
}

func (s *Store) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	e, ok := s.objs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	dataCopy := make([]byte, len(e.data))
	copy(dataCopy, e.data)
	return io.NopCloser(bytes.NewReader(dataCopy)), e.obj.ContentType, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objs[key]; !ok {
		return photostore.ErrNotFound
	}
	delete(s.objs, key)
	return nil
}

// List returns all objects matching prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]domain.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Object, 0, len(s.objs))
	for k, e := range s.objs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e.obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) URL(_ context.Context, key string) (string, error) {
	if err := photostore.ValidateKey(key); err != nil {
		return "", err
	}
	return s.baseURL + "/files/" + key, nil
}
