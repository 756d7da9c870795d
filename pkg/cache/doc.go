// Package cache provides a generic, thread-safe LRU cache.
//
// It backs the query cache's entry table: each query key maps to one entry,
// and the table is bounded so that long-running processes issuing many
// distinct keys (one per subscription ID, for example) do not grow without
// limit.
//
// # Usage
//
//	entries := cache.NewLRUCache[string, *entry](256)
//
//	e, existed := entries.GetOrPut(hash, func() *entry { return newEntry(key) })
//
//	// Drop everything under a key prefix
//	entries.RemoveFunc(func(hash string, e *entry) bool {
//		return e.key.HasPrefix(prefix)
//	})
//
// Get and GetOrPut mark an entry as recently used; Peek and Range do not.
//
// # Eviction callbacks
//
// SetEvictCallback registers a function that runs for every entry leaving
// the cache. The callback runs under the cache lock and must not re-enter it.
package cache
