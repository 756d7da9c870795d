// Package store holds the billing data the user is currently looking at:
// products, prices, the subscription list and the one subscription that is
// currently relevant.
//
// Each slot is replaced wholesale by its setter and read back as a copy.
// Default returns a process-wide instance created on first use; New creates
// independent instances for tests or embedding.
//
// With WithBroadcaster, every setter publishes a Change naming the replaced
// slot, so views can re-render:
//
//	s := store.New(store.WithBroadcaster(broadcast.NewMemoryBroadcaster[store.Change](8)))
//	sub, _ := s.Subscribe(ctx)
//	for change := range sub.C() {
//	    render(change.Slot, s.Snapshot())
//	}
package store
