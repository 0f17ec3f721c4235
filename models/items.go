package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"

	c "github.com/microcosm-cc/itemcache/cache"
	e "github.com/microcosm-cc/itemcache/errors"
	h "github.com/microcosm-cc/itemcache/helpers"
	"github.com/microcosm-cc/itemcache/metrics"
)

// ItemType is a single item as held in the store and returned by the API
type ItemType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Created     time.Time `json:"createdAt"`
}

// ItemStore is the source of truth for items
type ItemStore interface {
	// ListItems returns every item, newest first
	ListItems(ctx context.Context) ([]ItemType, error)

	// InsertItem stores m, assigning its ID and Created time
	InsertItem(ctx context.Context, m *ItemType) error

	// DeleteItem removes the item with the given ID, returning false if there
	// was no such item
	DeleteItem(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
	Connected() bool
}

// ItemCache is the subset of *cache.Cache used by the listing
type ItemCache interface {
	Connected() bool
	Get(key string) ([]byte, error)
	Set(key string, value []byte, timeToLive int32) error
	Delete(key string) error
	Exists(key string) (bool, error)
	Ping() error
}

// Items implements list, create and delete over a store with the full
// listing held in the cache under a single key.
type Items struct {
	Store   ItemStore
	Cache   ItemCache
	Metrics *metrics.Metrics

	// TTL is how long the listing stays cached, in seconds
	TTL int32
}

// NewItems returns Items using the given store and cache. cache may be nil,
// in which case the store is always used.
func NewItems(
	store ItemStore,
	cache ItemCache,
	m *metrics.Metrics,
	ttl int32,
) *Items {
	if ttl <= 0 {
		ttl = DefaultListTTL
	}

	return &Items{
		Store:   store,
		Cache:   cache,
		Metrics: m,
		TTL:     ttl,
	}
}

func (m *Items) cacheUsable() bool {
	return m.Cache != nil && m.Cache.Connected()
}

// List returns the JSON encoded listing of all items. The cached copy is
// returned as-is when present.
func (m *Items) List(ctx context.Context) ([]byte, int, error) {
	if m.cacheUsable() {
		data, err := m.Cache.Get(mcItemKeys[c.CacheDetail])
		switch {
		case err == nil:
			m.Metrics.CacheLookup(metrics.LookupHit)
			if glog.V(2) {
				glog.Info("Item listing served from cache")
			}
			return data, http.StatusOK, nil
		case errors.Is(err, c.ErrCacheMiss):
			m.Metrics.CacheLookup(metrics.LookupMiss)
		default:
			m.Metrics.CacheLookup(metrics.LookupError)
			glog.Warningf("Cache read failed, using store: %+v", err)
		}
	} else {
		m.Metrics.CacheLookup(metrics.LookupBypass)
	}

	if !m.Store.Connected() {
		m.Metrics.StoreError("list")
		return nil, http.StatusInternalServerError,
			e.New("models.Items.List", e.StoreUnavailable, "store is not connected")
	}

	ems, err := m.Store.ListItems(ctx)
	if err != nil {
		m.Metrics.StoreError("list")
		glog.Errorf("Store.ListItems() %+v", err)
		return nil, http.StatusInternalServerError,
			e.New("models.Items.List", e.StoreFailed, err.Error())
	}
	if ems == nil {
		ems = []ItemType{}
	}

	data, err := json.Marshal(ems)
	if err != nil {
		glog.Errorf("json.Marshal(ems) %+v", err)
		return nil, http.StatusInternalServerError, err
	}

	if m.cacheUsable() {
		err = m.Cache.Set(mcItemKeys[c.CacheDetail], data, m.TTL)
		m.Metrics.CacheWrite("set", err == nil)
		if err != nil {
			glog.Warningf("Cache write failed: %+v", err)
		} else if glog.V(2) {
			glog.Info("Item listing stored in cache")
		}
	}

	return data, http.StatusOK, nil
}

// Create validates and stores a new item, then invalidates the listing
func (m *Items) Create(
	ctx context.Context,
	name string,
	description string,
) (
	ItemType,
	int,
	error,
) {
	item := ItemType{
		Name:        h.SanitiseText(name),
		Description: h.SanitiseText(description),
	}

	status, err := item.validate()
	if err != nil {
		return ItemType{}, status, err
	}

	if !m.Store.Connected() {
		m.Metrics.StoreError("insert")
		return ItemType{}, http.StatusInternalServerError,
			e.New("models.Items.Create", e.StoreUnavailable, "store is not connected")
	}

	err = m.Store.InsertItem(ctx, &item)
	if err != nil {
		m.Metrics.StoreError("insert")
		glog.Errorf("Store.InsertItem() %+v", err)
		return ItemType{}, http.StatusInternalServerError,
			e.New("models.Items.Create", e.StoreFailed, err.Error())
	}

	m.purgeCache()

	return item, http.StatusCreated, nil
}

// Delete removes the item with the given ID, then invalidates the listing
func (m *Items) Delete(ctx context.Context, id string) (int, error) {
	if !m.Store.Connected() {
		m.Metrics.StoreError("delete")
		return http.StatusInternalServerError,
			e.New("models.Items.Delete", e.StoreUnavailable, "store is not connected")
	}

	deleted, err := m.Store.DeleteItem(ctx, id)
	if err != nil {
		m.Metrics.StoreError("delete")
		glog.Errorf("Store.DeleteItem(%s) %+v", id, err)
		return http.StatusInternalServerError,
			e.New("models.Items.Delete", e.StoreFailed, err.Error())
	}

	if !deleted {
		return http.StatusNotFound,
			e.New("models.Items.Delete", e.NotFound, "Item not found")
	}

	m.purgeCache()

	return http.StatusOK, nil
}

// purgeCache removes the listing. Failures are logged and otherwise ignored;
// the TTL bounds how stale the listing can become.
func (m *Items) purgeCache() {
	if !m.cacheUsable() {
		return
	}

	err := m.Cache.Delete(mcItemKeys[c.CacheDetail])
	m.Metrics.CacheWrite("delete", err == nil)
	if err != nil {
		glog.Warningf("Cache delete failed: %+v", err)
		return
	}

	if glog.V(2) {
		glog.Info("Item listing purged from cache")
	}
}

func (m *ItemType) validate() (int, error) {
	if m.Name == "" || m.Description == "" {
		return http.StatusBadRequest, e.New(
			"models.ItemType.validate",
			e.MissingField,
			"Name and description are required",
		)
	}

	return http.StatusOK, nil
}
