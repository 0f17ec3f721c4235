package models

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "github.com/microcosm-cc/itemcache/cache"
	e "github.com/microcosm-cc/itemcache/errors"
	"github.com/microcosm-cc/itemcache/metrics"
)

// countingStore records calls and can be made to fail
type countingStore struct {
	*MemoryStore

	mu        sync.Mutex
	lists     int
	fail      bool
	connected bool
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: NewMemoryStore(), connected: true}
}

func (s *countingStore) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *countingStore) ListItems(ctx context.Context) ([]ItemType, error) {
	s.mu.Lock()
	s.lists++
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return nil, errors.New("connection reset")
	}
	return s.MemoryStore.ListItems(ctx)
}

func (s *countingStore) InsertItem(ctx context.Context, m *ItemType) error {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return errors.New("connection reset")
	}
	return s.MemoryStore.InsertItem(ctx, m)
}

func (s *countingStore) DeleteItem(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()

	if fail {
		return false, errors.New("connection reset")
	}
	return s.MemoryStore.DeleteItem(ctx, id)
}

func (s *countingStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

func newTestItems(t *testing.T) (*Items, *countingStore, *c.FakeClient) {
	t.Helper()

	store := newCountingStore()
	cache, fake := c.NewFakeCache()
	m := metrics.New(prometheus.NewRegistry())

	return NewItems(store, cache, m, 0), store, fake
}

func decodeList(t *testing.T, data []byte) []ItemType {
	t.Helper()

	var ems []ItemType
	require.NoError(t, json.Unmarshal(data, &ems))
	return ems
}

func TestCreateThenList(t *testing.T) {
	items, _, _ := newTestItems(t)
	ctx := context.Background()

	created, status, err := items.Create(ctx, "Widget", "A small widget")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Created.IsZero())

	data, status, err := items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	ems := decodeList(t, data)
	require.Len(t, ems, 1)
	assert.Equal(t, created.ID, ems[0].ID)
	assert.Equal(t, "Widget", ems[0].Name)
	assert.Equal(t, "A small widget", ems[0].Description)
	assert.True(t, created.Created.Equal(ems[0].Created))
}

func TestListEmptyIsArray(t *testing.T) {
	items, _, _ := newTestItems(t)

	data, _, err := items.List(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestListIsCachedWithTTL(t *testing.T) {
	items, store, fake := newTestItems(t)
	ctx := context.Background()

	_, _, err := items.Create(ctx, "a", "b")
	require.NoError(t, err)

	first, _, err := items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls())

	it, ok := fake.Item("all_items")
	require.True(t, ok)
	assert.Equal(t, DefaultListTTL, it.Expiration)
	assert.Equal(t, first, it.Value)

	// A hit does not touch the store
	second, _, err := items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls())
	assert.Equal(t, first, second)
}

func TestWritesInvalidateListing(t *testing.T) {
	items, store, fake := newTestItems(t)
	ctx := context.Background()

	a, _, err := items.Create(ctx, "first", "one")
	require.NoError(t, err)

	_, _, err = items.List(ctx)
	require.NoError(t, err)
	_, ok := fake.Item("all_items")
	require.True(t, ok)

	// Create purges
	_, _, err = items.Create(ctx, "second", "two")
	require.NoError(t, err)
	_, ok = fake.Item("all_items")
	assert.False(t, ok)

	data, _, err := items.List(ctx)
	require.NoError(t, err)
	assert.Len(t, decodeList(t, data), 2)
	assert.Equal(t, 2, store.listCalls())

	// Delete purges
	status, err := items.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	_, ok = fake.Item("all_items")
	assert.False(t, ok)

	data, _, err = items.List(ctx)
	require.NoError(t, err)
	ems := decodeList(t, data)
	require.Len(t, ems, 1)
	assert.Equal(t, "second", ems[0].Name)
}

func TestListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	items := NewItems(store, nil, nil, 0)
	ctx := context.Background()

	for _, name := range []string{"one", "two", "three"} {
		_, _, err := items.Create(ctx, name, "d")
		require.NoError(t, err)
	}

	data, _, err := items.List(ctx)
	require.NoError(t, err)

	ems := decodeList(t, data)
	require.Len(t, ems, 3)
	assert.Equal(t, "three", ems[0].Name)
	assert.Equal(t, "two", ems[1].Name)
	assert.Equal(t, "one", ems[2].Name)
}

func TestCreateRequiresFields(t *testing.T) {
	items, _, fake := newTestItems(t)
	ctx := context.Background()

	cases := [][2]string{
		{"", "desc"},
		{"name", ""},
		{"   ", "desc"},
		{"<b></b>", "desc"},
	}
	for _, tc := range cases {
		_, status, err := items.Create(ctx, tc[0], tc[1])
		assert.Equal(t, http.StatusBadRequest, status, "%q", tc)
		assert.True(t, e.Is(err, e.MissingField), "%q", tc)
	}

	assert.Equal(t, 0, fake.CallCount("delete"))
}

func TestCreateStripsMarkup(t *testing.T) {
	items, _, _ := newTestItems(t)

	m, _, err := items.Create(context.Background(), "<i>Lamp</i>", " Desk lamp ")
	require.NoError(t, err)
	assert.Equal(t, "Lamp", m.Name)
	assert.Equal(t, "Desk lamp", m.Description)
}

func TestCreateKeepsPunctuation(t *testing.T) {
	items, _, _ := newTestItems(t)
	ctx := context.Background()

	m, _, err := items.Create(ctx, "Tom & Jerry", `5 < 6 "quoted" it's`)
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry", m.Name)
	assert.Equal(t, `5 < 6 "quoted" it's`, m.Description)

	data, _, err := items.List(ctx)
	require.NoError(t, err)

	ems := decodeList(t, data)
	require.Len(t, ems, 1)
	assert.Equal(t, "Tom & Jerry", ems[0].Name)
	assert.Equal(t, `5 < 6 "quoted" it's`, ems[0].Description)
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	items, _, fake := newTestItems(t)

	status, err := items.Delete(context.Background(), "does-not-exist")
	assert.Equal(t, http.StatusNotFound, status)
	assert.True(t, e.Is(err, e.NotFound))

	// Nothing changed so nothing is invalidated
	assert.Equal(t, 0, fake.CallCount("delete"))
}

func TestCacheFailuresFallBackToStore(t *testing.T) {
	items, store, fake := newTestItems(t)
	ctx := context.Background()

	fake.SetDown(true)

	m, status, err := items.Create(ctx, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)

	data, status, err := items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeList(t, data), 1)
	assert.Equal(t, 1, store.listCalls())

	status, err = items.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	// The cache was tried for every operation
	assert.Equal(t, 1, fake.CallCount("get"))
	assert.Equal(t, 1, fake.CallCount("set"))
	assert.Equal(t, 2, fake.CallCount("delete"))
}

func TestUnconnectedCacheIsBypassed(t *testing.T) {
	store := newCountingStore()
	fake := c.NewFakeClient()
	cache := c.NewWithClient(fake)
	items := NewItems(store, cache, nil, 0)
	ctx := context.Background()

	m, _, err := items.Create(ctx, "x", "y")
	require.NoError(t, err)

	_, _, err = items.List(ctx)
	require.NoError(t, err)
	_, _, err = items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls())

	_, err = items.Delete(ctx, m.ID)
	require.NoError(t, err)

	// Degraded mode never reaches the cache
	assert.Equal(t, 0, fake.CallCount("get"))
	assert.Equal(t, 0, fake.CallCount("set"))
	assert.Equal(t, 0, fake.CallCount("delete"))
}

func TestNilCacheIsBypassed(t *testing.T) {
	items := NewItems(NewMemoryStore(), nil, nil, 0)
	ctx := context.Background()

	_, _, err := items.Create(ctx, "x", "y")
	require.NoError(t, err)

	data, _, err := items.List(ctx)
	require.NoError(t, err)
	assert.Len(t, decodeList(t, data), 1)

	assert.Equal(t, CacheStatusType{}, items.CacheStatus())
}

func TestStoreFailures(t *testing.T) {
	items, store, fake := newTestItems(t)
	ctx := context.Background()

	store.fail = true

	_, status, err := items.List(ctx)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreFailed))

	// A failed read is not cached
	_, ok := fake.Item("all_items")
	assert.False(t, ok)

	_, status, err = items.Create(ctx, "x", "y")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreFailed))

	// A failed write does not invalidate
	assert.Equal(t, 0, fake.CallCount("delete"))
}

func TestDeleteStoreFailure(t *testing.T) {
	items, store, fake := newTestItems(t)
	ctx := context.Background()

	m, _, err := items.Create(ctx, "x", "y")
	require.NoError(t, err)
	_, _, err = items.List(ctx)
	require.NoError(t, err)
	purges := fake.CallCount("delete")

	store.fail = true

	status, err := items.Delete(ctx, m.ID)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreFailed))

	// The cached listing is left alone
	assert.Equal(t, purges, fake.CallCount("delete"))
	_, ok := fake.Item("all_items")
	assert.True(t, ok)
}

func TestStoreNotConnected(t *testing.T) {
	items, store, _ := newTestItems(t)
	ctx := context.Background()

	store.connected = false

	_, status, err := items.List(ctx)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreUnavailable))

	_, status, err = items.Create(ctx, "x", "y")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreUnavailable))

	status, err = items.Delete(ctx, "id")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.True(t, e.Is(err, e.StoreUnavailable))
}

func TestCacheStatus(t *testing.T) {
	items, _, fake := newTestItems(t)
	ctx := context.Background()

	assert.Equal(t, CacheStatusType{Connected: true, Keys: 0}, items.CacheStatus())

	_, _, err := items.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, CacheStatusType{Connected: true, Keys: 1}, items.CacheStatus())

	fake.SetDown(true)
	assert.Equal(t, CacheStatusType{Connected: false, Keys: 0}, items.CacheStatus())
}

func TestHealth(t *testing.T) {
	items, _, _ := newTestItems(t)
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	assert.Equal(t, HealthType{
		Status:         "OK",
		StoreConnected: true,
		CacheConnected: true,
		Timestamp:      "2024-05-06T07:08:09Z",
	}, items.Health(now))

	items.Cache = nil
	assert.False(t, items.Health(now).CacheConnected)
}
