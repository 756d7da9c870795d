// Package broadcast fans typed values out to in-process subscribers.
//
// MemoryBroadcaster never blocks the sender. A subscriber that falls a full
// buffer behind misses values instead of stalling everyone else, and
// Dropped tells it how many. Subscriptions end when their context ends, when
// Close is called on them, or when the broadcaster closes.
//
//	b := broadcast.NewMemoryBroadcaster[store.Change](16)
//	sub := b.Subscribe(ctx)
//	for change := range sub.C() {
//	    handle(change)
//	}
package broadcast
