package query

import "time"

// Result is a point-in-time snapshot of a query's state.
//
// IsLoading is true only while the first fetch for a key is in flight and no
// successful result has ever been stored. IsFetching is true for any active
// fetch, refetches included. On failure Error is set and Data keeps the last
// successful value.
type Result[T any] struct {
	Data       T
	HasData    bool
	Error      error
	IsLoading  bool
	IsFetching bool
	UpdatedAt  time.Time
}

// IsSuccess reports whether the last fetch succeeded.
func (r Result[T]) IsSuccess() bool {
	return r.HasData && r.Error == nil
}

// IsError reports whether the last fetch failed.
func (r Result[T]) IsError() bool {
	return r.Error != nil
}

// MutationResult carries either the mutation's result or its failure.
type MutationResult[R any] struct {
	Data R
	Err  error
}

// Ok reports whether the mutation succeeded.
func (r MutationResult[R]) Ok() bool {
	return r.Err == nil
}
