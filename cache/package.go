/*
Package cache provides the memcached client used by the item listing. It should
not be of any concern to the callee where this cache is, simply that the cache
exists and will speed things up.

Until the cache has answered a ping it is considered unavailable and every
operation returns ErrUnavailable without touching the network. Callers treat
that as the expected degraded path rather than a failure.

Eventual consistency of the cached items is promised, but nothing more.
*/
package cache

// Maintains a list of constants that determine the type of content held in a
// key, so that a model can map each kind to its own key.
const (
	CacheDetail int = 1
)
