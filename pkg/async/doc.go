// Package async runs computations in their own goroutine and exposes their
// eventual result as a generic Future.
//
// Async starts the supplied function and immediately returns a *Future. The
// caller waits with Await, bounds the wait with AwaitContext or
// AwaitWithTimeout, selects on Done, or polls with IsComplete. Abandoning a
// wait never stops the computation.
//
// WaitAll collects the results of several futures, waiting for every one of
// them even when an earlier one failed.
//
//	f := async.Async(ctx, payload, func(ctx context.Context, p Payload) (string, error) {
//	    return send(ctx, p)
//	})
//	res, err := f.Await()
package async
