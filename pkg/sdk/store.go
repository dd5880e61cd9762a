package sdk

import (
	"context"
	"errors"
	"sync"
)

// Load sentinels. ErrLoadInFlight is the rejection for an append issued
// while another fetch is pending; ErrNoMorePages means the cursor is
// exhausted.
var (
	ErrLoadInFlight = errors.New("a page fetch is already in flight")
	ErrNoMorePages  = errors.New("no further pages")
)

// FetchPage retrieves one page of a remote collection. startKey is ""
// for the first page, otherwise the cursor from the previous page,
// passed back verbatim.
type FetchPage[T any] func(ctx context.Context, startKey string) (Page[T], error)

// ListStore owns an ordered in-memory slice of remote records plus the
// single opaque continuation cursor. All mutation happens through its
// own operations; the mutation coordinator reaches in only via
// ApplyLocalPatch/RemoveLocal.
//
// A monotonically increasing generation, bumped on every reset, guards
// against stale page arrivals: a fetch result belonging to an older
// generation is discarded silently, never surfaced as a failure.
type ListStore[T any] struct {
	fetch FetchPage[T]
	key   func(T) string

	mu         sync.Mutex
	items      []T
	nextKey    string
	generation uint64
	pending    int
	dedupe     bool
}

// StoreOption configures a ListStore.
type StoreOption[T any] func(*ListStore[T])

// WithDedupe drops appended items whose key is already resident. The
// backend may re-emit a record when concurrent inserts shift a cursor
// window; the default is raw append, matching the server's contract.
func WithDedupe[T any]() StoreOption[T] {
	return func(s *ListStore[T]) {
		s.dedupe = true
	}
}

// NewListStore builds a store around a page fetcher and an item-key
// function. The key function powers patches, removals, and optional
// deduplication.
func NewListStore[T any](fetch FetchPage[T], key func(T) string, optFns ...StoreOption[T]) *ListStore[T] {
	s := &ListStore[T]{
		fetch: fetch,
		key:   key,
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Items returns a copy of the held sequence.
func (s *ListStore[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of resident items.
func (s *ListStore[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// HasMore reports whether the server indicated a further page after the
// last successful load.
func (s *ListStore[T]) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextKey != ""
}

// NextStartKey exposes the held cursor, opaque and read-only.
func (s *ListStore[T]) NextStartKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextKey
}

// Clear synchronously empties the sequence and cursor and bumps the
// generation, so any in-flight fetch result is discarded on arrival.
func (s *ListStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.nextKey = ""
	s.generation++
}

// Load fetches the first page and replaces the entire sequence and
// cursor on success. On failure the held state is unchanged. A reset is
// always allowed: it supersedes any in-flight fetch, whose late result
// is then discarded by the generation check.
func (s *ListStore[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.pending++
	s.mu.Unlock()

	page, err := s.fetch(ctx, "")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if gen != s.generation {
		// A newer reset superseded this load; drop the result quietly.
		return nil
	}
	if err != nil {
		return err
	}
	items := append([]T(nil), page.Items...)
	if s.dedupe {
		items = dedupeByKey(items, s.key, nil)
	}
	s.items = items
	s.nextKey = page.NextStartKey
	return nil
}

// LoadMore fetches the next page using the held cursor and appends it,
// preserving order. It is rejected while any fetch is pending, and its
// result is discarded if a reset intervenes before arrival.
func (s *ListStore[T]) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.pending > 0 {
		s.mu.Unlock()
		return ErrLoadInFlight
	}
	if s.nextKey == "" {
		s.mu.Unlock()
		return ErrNoMorePages
	}
	gen := s.generation
	startKey := s.nextKey
	s.pending++
	s.mu.Unlock()

	page, err := s.fetch(ctx, startKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if gen != s.generation {
		return nil
	}
	if err != nil {
		return err
	}
	items := page.Items
	if s.dedupe {
		seen := make(map[string]struct{}, len(s.items))
		for _, existing := range s.items {
			seen[s.key(existing)] = struct{}{}
		}
		items = dedupeByKey(items, s.key, seen)
	}
	s.items = append(s.items, items...)
	s.nextKey = page.NextStartKey
	return nil
}

// ApplyLocalPatch runs mutate against the resident item with the given
// key. It reports whether a matching item was found; an absent key is a
// no-op.
func (s *ListStore[T]) ApplyLocalPatch(key string, mutate func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.key(s.items[i]) == key {
			mutate(&s.items[i])
			return true
		}
	}
	return false
}

// RemoveLocal removes the resident item with the given key. An absent
// key is a no-op.
func (s *ListStore[T]) RemoveLocal(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.key(s.items[i]) == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func dedupeByKey[T any](items []T, key func(T) string, seen map[string]struct{}) []T {
	if seen == nil {
		seen = make(map[string]struct{}, len(items))
	}
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}
