package climate

import (
	"context"
	"sync"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

type stubCurrent struct {
	errs   []error
	result models.CurrentConditions
	calls  int
	mu     sync.Mutex
}

func (s *stubCurrent) Name() string { return "stub" }

func (s *stubCurrent) Current(_ context.Context, _, _ float64) (models.CurrentConditions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return models.CurrentConditions{}, err
	}
	return s.result, nil
}

type stubHistorical struct {
	err    error
	result models.HistoricalStats
	window Window
	calls  int
}

func (s *stubHistorical) Name() string { return "stub" }

func (s *stubHistorical) Historical(_ context.Context, _, _ float64, w Window) (models.HistoricalStats, error) {
	s.calls++
	s.window = w
	return s.result, s.err
}

type memoryStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	ttls   map[string]time.Duration
	mu     sync.Mutex
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func fastRetry(n int) RetryConfig {
	return RetryConfig{Retries: n, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}
