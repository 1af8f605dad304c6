package types

// Reason explains the outcome of a best-effort lookup.
type Reason string

const (
	ReasonFound        Reason = "found"
	ReasonSkipped      Reason = "skipped"
	ReasonNetworkError Reason = "network_error"
	ReasonNotFound     Reason = "not_found"
	ReasonParseMiss    Reason = "parse_miss"
)

// Result carries the value of a best-effort lookup, or the reason it has none.
// Callers use Reason to tell "legitimately absent" from "could not determine".
type Result[T any] struct {
	Value  T
	Reason Reason
	Err    error
}

// Found wraps a successful lookup.
func Found[T any](v T) Result[T] {
	return Result[T]{Value: v, Reason: ReasonFound}
}

// Missing wraps a lookup that produced no value.
func Missing[T any](reason Reason, err error) Result[T] {
	return Result[T]{Reason: reason, Err: err}
}

// OK returns true if the lookup produced a value.
func (r Result[T]) OK() bool { return r.Reason == ReasonFound }

// Failed returns true if the value could not be determined,
// as opposed to being legitimately absent.
func (r Result[T]) Failed() bool { return r.Reason == ReasonNetworkError }
