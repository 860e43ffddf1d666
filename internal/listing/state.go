package listing

import "time"

// Status is the load state of a list screen.
type Status int

const (
	// StatusIdle is the state before the first load.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight.
	StatusLoading
	// StatusLoaded means the view reflects the current query.
	StatusLoaded
	// StatusError means the last fetch failed.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of a controller.
type State[T any] struct {
	Status Status
	Query  Query
	// SearchInput is the raw search text, ahead of the debounced Query.Search.
	SearchInput string
	View        View[T]
	Err         error
	// HasData is true once any load succeeded; rows stay visible after errors.
	HasData bool
	// Stale marks rows that come from an earlier load than the current query.
	Stale     bool
	LoadedAt  time.Time
	Requested uint64
}

// Fatal reports a failed first load: there is nothing to show but the error.
func (s State[T]) Fatal() bool {
	return s.Status == StatusError && !s.HasData
}

// Empty reports a successful load that matched no rows.
func (s State[T]) Empty() bool {
	return s.HasData && s.Status != StatusError && len(s.View.Filtered) == 0
}

// CanExport reports whether export has anything to write.
func (s State[T]) CanExport() bool {
	return len(s.View.Filtered) > 0
}
