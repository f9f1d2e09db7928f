package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pipeline-pioneers/etl-warehouse/internal/awslib"
)

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failPuts map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, failPuts: map[string]bool{}}
}

func (s *fakeStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("%w: s3://%s/%s", awslib.ErrNoSuchKey, bucket, key)
	}
	return body, nil
}

func (s *fakeStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPuts[key] {
		return fmt.Errorf("simulated write failure for %s", key)
	}
	s.objects[bucket+"/"+key] = body
	return nil
}

func (s *fakeStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for fullKey := range s.objects {
		if strings.HasPrefix(fullKey, bucket+"/"+prefix) {
			keys = append(keys, strings.TrimPrefix(fullKey, bucket+"/"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}
