// Package query caches the results of remote reads and dispatches remote
// writes.
//
// A Client holds one entry per Key. Query returns an entry's data, calling the
// supplied Producer only when the cache has nothing fresh. Concurrent queries
// for one key share a single producer call through singleflight, and a fetch
// started later always wins over one started earlier: results of superseded
// fetches are discarded. When a fetch fails the entry keeps its last good data
// and exposes the error next to it.
//
//	client := query.NewClient(query.WithStaleTime(time.Minute))
//	res := query.Query(ctx, client, query.Key{"prices"}, fetchPrices)
//	if res.IsError() {
//	    // res.Data still holds the previous prices, if any
//	}
//
// Producers run on a context detached from the caller's cancellation. A caller
// may stop waiting, but the fetch completes and its result is cached.
//
// Invalidate, Refetch, SetData, Remove and Reset manage entries explicitly.
//
// A Mutation wraps a write. It runs exactly once per dispatch, never retries,
// and invokes OnSuccess or OnError before Mutate returns. Panics in callbacks
// are recovered into ErrCallbackPanic.
//
//	attach := query.NewMutation(query.Key{"subscriptions", "store"}, attachFn,
//	    query.Callbacks[json.RawMessage]{OnError: report})
//	res := attach.Mutate(ctx, payload)
//
// Metrics created with NewMetrics count fetches, cache hits, joined callers,
// discarded results and dispatches.
package query
