// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards using murmur3;
// each shard is guarded by its own RWMutex. The session memory backend
// keeps one entry per session id here.
//
// Usage:
//
//	m := cmap.New[*entry]()
//	m.Set(id, e)
//	e, ok := m.Get(id)
package cmap
