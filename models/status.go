package models

import (
	"time"

	"github.com/golang/glog"
)

// CacheStatusType reports whether the cache is reachable and how many of the
// keys managed by models it currently holds
type CacheStatusType struct {
	Connected bool `json:"connected"`
	Keys      int  `json:"keys"`
}

// HealthType is the body of the health check
type HealthType struct {
	Status         string `json:"status"`
	StoreConnected bool   `json:"store_connected"`
	CacheConnected bool   `json:"cache_connected"`
	Timestamp      string `json:"timestamp"`
}

// CacheStatus pings the cache and counts the managed keys present in it.
// memcached cannot enumerate its keys, so only the keys we write are counted.
func (m *Items) CacheStatus() CacheStatusType {
	status := CacheStatusType{}

	if !m.cacheUsable() {
		return status
	}

	if err := m.Cache.Ping(); err != nil {
		glog.Warningf("Cache ping failed: %+v", err)
		return status
	}
	status.Connected = true

	for _, key := range CacheKeys() {
		exists, err := m.Cache.Exists(key)
		if err != nil {
			glog.Warningf("Cache lookup of %s failed: %+v", key, err)
			continue
		}
		if exists {
			status.Keys++
		}
	}

	return status
}

// Health reports the connection state of the store and cache as of now
func (m *Items) Health(now time.Time) HealthType {
	return HealthType{
		Status:         "OK",
		StoreConnected: m.Store != nil && m.Store.Connected(),
		CacheConnected: m.cacheUsable(),
		Timestamp:      now.UTC().Format(time.RFC3339),
	}
}
