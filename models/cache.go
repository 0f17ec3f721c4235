package models

import (
	c "github.com/microcosm-cc/itemcache/cache"
)

// This file contains the cache keys for model objects held in memcache. It
// should only contain things specific to models; anything else should go in
// the cache package.

// DefaultListTTL is how long the item listing is cached for, in seconds
const DefaultListTTL int32 = 300

var mcItemKeys = map[int]string{
	c.CacheDetail: "all_items",
}

// CacheKeys returns every key that models write to the cache
func CacheKeys() []string {
	keys := make([]string, 0, len(mcItemKeys))
	for _, key := range mcItemKeys {
		keys = append(keys, key)
	}
	return keys
}
