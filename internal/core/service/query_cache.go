package service

import (
	"context"
	"sync"

	"github.com/flowtask/flowtask/internal/metrics"
)

// queryCache is a read-through cache for one query identity. Every fetch and
// every invalidation takes a new generation; a fetch result is stored only if
// no newer generation was issued while it was in flight.
type queryCache[T any] struct {
	key string

	mu     sync.Mutex
	value  T
	valid  bool
	issued uint64
}

func newQueryCache[T any](key string) *queryCache[T] {
	return &queryCache[T]{key: key}
}

func (q *queryCache[T]) get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	q.mu.Lock()
	if q.valid {
		v := q.value
		q.mu.Unlock()
		return v, nil
	}
	q.mu.Unlock()
	return q.refresh(ctx, fetch)
}

// refresh always hits the backend. A stale result is still returned to its
// caller but is not stored.
func (q *queryCache[T]) refresh(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	q.mu.Lock()
	q.issued++
	gen := q.issued
	q.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		metrics.CacheFetchesTotal.WithLabelValues(q.key, "error").Inc()
		var zero T
		return zero, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if gen != q.issued {
		metrics.CacheFetchesTotal.WithLabelValues(q.key, "stale").Inc()
		return v, nil
	}
	q.value, q.valid = v, true
	metrics.CacheFetchesTotal.WithLabelValues(q.key, "applied").Inc()
	return v, nil
}

// invalidate drops the cached value and outdates in-flight fetches.
func (q *queryCache[T]) invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	q.value, q.valid = zero, false
	q.issued++
}

func (q *queryCache[T]) peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.value, q.valid
}
