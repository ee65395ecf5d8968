// Package cache holds the process-wide schema document behind a fixed TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tordrt/askdb/internal/schema"
)

// DefaultTTL is how long a cached schema document stays fresh.
const DefaultTTL = time.Hour

// Loader produces a fresh schema document on cache miss or expiry.
type Loader func(ctx context.Context) (*schema.Document, error)

// Schema memoizes a single schema document. The slot is overwritten
// wholesale on refresh, never partially mutated. The loader runs outside the
// lock: two concurrent misses both load and the last writer wins. The
// catalog read is idempotent, so this only costs a duplicate read.
type Schema struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time

	mu          sync.Mutex
	doc         *schema.Document
	lastUpdated time.Time
}

// Option configures a Schema cache.
type Option func(*Schema)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Schema) { s.now = now }
}

// New creates a schema cache around the loader. A non-positive ttl falls
// back to DefaultTTL.
func New(loader Loader, ttl time.Duration, opts ...Option) *Schema {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Schema{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached document while it is fresh, otherwise loads a new
// one, stores it with the current timestamp, and returns it. Loader errors
// are returned as-is and never cached.
func (s *Schema) Get(ctx context.Context) (*schema.Document, error) {
	s.mu.Lock()
	if s.doc != nil && s.now().Sub(s.lastUpdated) < s.ttl {
		doc := s.doc
		s.mu.Unlock()
		return doc, nil
	}
	s.mu.Unlock()

	doc, err := s.loader(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.doc = doc
	s.lastUpdated = s.now()
	s.mu.Unlock()

	return doc, nil
}

// Invalidate drops the cached document so the next Get reloads.
func (s *Schema) Invalidate() {
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
}
