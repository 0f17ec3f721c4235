package cache

import (
	"errors"
	"sync"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrFakeDown is returned by FakeClient while it is marked down
var ErrFakeDown = errors.New("fake memcached: connection refused")

// FakeClient is an in-process Client for tests. Expiration is recorded but
// not enforced.
type FakeClient struct {
	mu    sync.Mutex
	items map[string]*memcache.Item
	down  bool

	// Calls counts operations by name: get, set, delete, ping
	Calls map[string]int
}

// NewFakeClient returns an empty, reachable FakeClient
func NewFakeClient() *FakeClient {
	return &FakeClient{
		items: map[string]*memcache.Item{},
		Calls: map[string]int{},
	}
}

// NewFakeCache returns a connected Cache backed by a FakeClient
func NewFakeCache() (*Cache, *FakeClient) {
	f := NewFakeClient()
	c := NewWithClient(f)
	c.connected.Store(true)
	return c, f
}

// SetDown makes every subsequent operation fail (or succeed again)
func (f *FakeClient) SetDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

// Item returns the stored item for key, if any
func (f *FakeClient) Item(key string) (*memcache.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[key]
	return it, ok
}

// CallCount returns how many times op was called
func (f *FakeClient) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *FakeClient) Get(key string) (*memcache.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["get"]++
	if f.down {
		return nil, ErrFakeDown
	}
	it, ok := f.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return it, nil
}

func (f *FakeClient) Set(item *memcache.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["set"]++
	if f.down {
		return ErrFakeDown
	}
	f.items[item.Key] = item
	return nil
}

func (f *FakeClient) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["delete"]++
	if f.down {
		return ErrFakeDown
	}
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

func (f *FakeClient) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["ping"]++
	if f.down {
		return ErrFakeDown
	}
	return nil
}
