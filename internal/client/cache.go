package client

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/slipstream/marquee/internal/metrics"
)

// Cache tags provided by the endpoints.
const (
	TagMovies = "Movies"
	TagGenres = "Genres"
)

// MovieTag is the tag carried by a single movie's detail entry.
func MovieTag(id int) string {
	return "Movie:" + strconv.Itoa(id)
}

// QueryKey identifies a request by endpoint and its non-empty parameters in sorted order.
func QueryKey(endpoint string, params url.Values) string {
	clean := nonEmpty(params)
	if len(clean) == 0 {
		return endpoint
	}
	return endpoint + "?" + clean.Encode()
}

// Entry is a cached response.
type Entry struct {
	Data      any
	Tags      []string
	FetchedAt time.Time
}

// QueryCache memoizes responses by QueryKey and shares in-flight requests for the same key.
// Failed fetches are never cached.
type QueryCache struct {
	store *gocache.Cache
	group singleflight.Group
	now   func() time.Time
}

// NewQueryCache creates a cache whose entries live for ttl.
func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &QueryCache{
		store: gocache.New(ttl, 2*ttl),
		now:   time.Now,
	}
}

// Get returns the cached entry for key.
func (q *QueryCache) Get(key string) (Entry, bool) {
	v, ok := q.store.Get(key)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Do returns the cached data for key, or runs fetch and caches its result.
// Concurrent calls for the same key share one fetch. With refetch set the cached value is ignored.
// The fetch is detached from ctx so a cancelled caller does not fail the others waiting on it.
func (q *QueryCache) Do(ctx context.Context, key string, tags []string, refetch bool, fetch func(context.Context) (any, error)) (any, error) {
	if !refetch {
		if e, ok := q.Get(key); ok {
			metrics.RecordCacheEvent("hit")
			return e.Data, nil
		}
	}
	metrics.RecordCacheEvent("miss")

	detached := context.WithoutCancel(ctx)
	ch := q.group.DoChan(key, func() (any, error) {
		data, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		q.store.SetDefault(key, Entry{Data: data, Tags: slices.Clone(tags), FetchedAt: q.now()})
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Shared {
			metrics.RecordCacheEvent("shared")
		}
		return r.Val, r.Err
	}
}

// InvalidateTags drops every entry carrying any of tags and returns how many were dropped.
func (q *QueryCache) InvalidateTags(tags ...string) int {
	dropped := 0
	for key, item := range q.store.Items() {
		e, ok := item.Object.(Entry)
		if !ok {
			continue
		}
		for _, t := range e.Tags {
			if slices.Contains(tags, t) {
				q.store.Delete(key)
				dropped++
				break
			}
		}
	}
	return dropped
}

// Invalidate drops the entry for key.
func (q *QueryCache) Invalidate(key string) {
	q.store.Delete(key)
}

// Len returns the number of cached entries, including expired ones not yet swept.
func (q *QueryCache) Len() int {
	return q.store.ItemCount()
}

// Flush drops every entry.
func (q *QueryCache) Flush() {
	q.store.Flush()
}
