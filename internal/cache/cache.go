// Package cache is the client-side query cache. Entries are keyed by
// resource type and key; mutations invalidate a whole resource or one key
// so the next read refetches.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

const (
	DefaultTTL     = 30 * time.Second
	DefaultRetries = 1
)

// ListKey is the key used for a resource's unfiltered list.
const ListKey = "list"

type entry struct {
	val any
	at  time.Time
}

// Store is a thread-safe [resource][key] cache.
type Store struct {
	mu sync.RWMutex
	// Structure: [resource][key]entry
	data    map[string]map[string]entry
	ttl     time.Duration
	retries int
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Store)

// WithTTL sets how long an entry stays fresh. Zero disables caching.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithRetries sets how many times a failed fetch is retried.
func WithRetries(n int) Option {
	return func(s *Store) { s.retries = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func withClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		data:    make(map[string]map[string]entry),
		ttl:     DefaultTTL,
		retries: DefaultRetries,
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a fresh entry.
func (s *Store) Get(resource, key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.data[resource]
	if !ok {
		return nil, false
	}
	e, ok := res[key]
	if !ok || s.now().Sub(e.at) >= s.ttl {
		return nil, false
	}
	return e.val, true
}

func (s *Store) Set(resource, key string, val any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[resource] == nil {
		s.data[resource] = make(map[string]entry)
	}
	s.data[resource][key] = entry{val: val, at: s.now()}
}

// Invalidate drops every entry of a resource.
func (s *Store) Invalidate(resource string) {
	s.mu.Lock()
	delete(s.data, resource)
	s.mu.Unlock()
}

// InvalidateKey drops one entry.
func (s *Store) InvalidateKey(resource, key string) {
	s.mu.Lock()
	if res, ok := s.data[resource]; ok {
		delete(res, key)
		if len(res) == 0 {
			delete(s.data, resource)
		}
	}
	s.mu.Unlock()
}

// Resources lists the resources that hold at least one entry.
func (s *Store) Resources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]string, 0, len(s.data))
	for r := range s.data {
		list = append(list, r)
	}
	sort.Strings(list)
	return list
}

// retryable reports whether another attempt could change the outcome.
func retryable(err error) bool {
	return !sdk.IsUnauthorized(err) && !sdk.IsValidation(err)
}

// Fetch returns the cached value for (resource, key) or loads it with fn.
// A failed load is retried up to the store's retry count unless the error
// is an auth or validation failure. Failures are never cached.
func Fetch[T any](ctx context.Context, s *Store, resource, key string, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(resource, key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	var (
		val T
		err error
	)
	for attempt := 0; attempt <= s.retries; attempt++ {
		val, err = fn(ctx)
		if err == nil {
			s.Set(resource, key, val)
			return val, nil
		}
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		s.log.Debug("fetch failed, retrying",
			zap.String("resource", resource),
			zap.String("key", key),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	var zero T
	return zero, err
}
