package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/golang/glog"

	h "github.com/microcosm-cc/itemcache/helpers"
)

var (
	// ErrCacheMiss is returned by Get when the key is not in the cache
	ErrCacheMiss = memcache.ErrCacheMiss

	// ErrUnavailable is returned by every operation while the cache has not
	// connected
	ErrUnavailable = errors.New("cache: not connected")
)

// Client is the subset of *memcache.Client that the cache uses
type Client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	Ping() error
}

// Cache wraps a memcache client and knows whether it is connected
type Cache struct {
	mc        Client
	addr      string
	connected atomic.Bool
}

// New creates a cache for the memcached server at host:port. It is not
// connected until Connect or Check succeeds.
func New(host string, port int64) *Cache {
	addr := fmt.Sprintf("%s:%d", host, port)
	return &Cache{mc: memcache.New(addr), addr: addr}
}

// NewWithClient creates a cache on top of an existing client
func NewWithClient(mc Client) *Cache {
	return &Cache{mc: mc, addr: "custom"}
}

// Addr returns the server address the cache talks to
func (c *Cache) Addr() string {
	return c.addr
}

// Connected reports whether the cache is available for use
func (c *Cache) Connected() bool {
	return c != nil && c.connected.Load()
}

// Connect blocks until the server answers a ping or ctx is done
func (c *Cache) Connect(ctx context.Context, b h.Backoff) error {
	err := h.Retry(ctx, b, "memcached "+c.addr, func(context.Context) error {
		return c.mc.Ping()
	})
	if err != nil {
		return err
	}

	c.connected.Store(true)
	glog.Infof("Connected to memcached at %s", c.addr)
	return nil
}

// Check pings the server and updates the connected state, logging when it
// changes. It returns the current state.
func (c *Cache) Check(context.Context) bool {
	err := c.mc.Ping()
	now := err == nil
	was := c.connected.Swap(now)

	switch {
	case was && !now:
		glog.Warningf("memcached at %s went away: %+v", c.addr, err)
	case !was && now:
		glog.Infof("memcached at %s is back", c.addr)
	}

	return now
}

// Ping checks the server without changing the connected state
func (c *Cache) Ping() error {
	if !c.Connected() {
		return ErrUnavailable
	}
	return c.mc.Ping()
}

// Get returns the raw bytes stored under key
func (c *Cache) Get(key string) ([]byte, error) {
	if !c.Connected() {
		return nil, ErrUnavailable
	}

	item, err := c.mc.Get(key)
	if err != nil {
		return nil, err
	}

	return item.Value, nil
}

// Exists reports whether key is currently held in the cache
func (c *Cache) Exists(key string) (bool, error) {
	_, err := c.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrCacheMiss):
		return false, nil
	default:
		return false, err
	}
}

// Set stores value under key for timeToLive seconds
func (c *Cache) Set(key string, value []byte, timeToLive int32) error {
	if !c.Connected() {
		return ErrUnavailable
	}

	return c.mc.Set(
		&memcache.Item{
			Key:        key,
			Value:      value,
			Expiration: timeToLive, // time in seconds
		},
	)
}

// Delete removes key from the cache. A key that is not there is not an error.
func (c *Cache) Delete(key string) error {
	if !c.Connected() {
		return ErrUnavailable
	}

	err := c.mc.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}

	return nil
}
