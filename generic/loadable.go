package generic

// =============================================================================
// LOADABLE - Unloaded | Loaded(value) | Failed
// =============================================================================

// LoadState distinguishes "not fetched yet" from "fetched and zero".
type LoadState int

const (
	Unloaded LoadState = iota
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Loadable wraps a value whose authoritative source may not have answered yet.
// The zero Loadable is Unloaded, so a freshly declared field never reads as a
// genuine zero.
type Loadable[T any] struct {
	state LoadState
	value T
	err   error
}

func LoadedValue[T any](v T) Loadable[T] { return Loadable[T]{state: Loaded, value: v} }

func LoadFailed[T any](err error) Loadable[T] { return Loadable[T]{state: Failed, err: err} }

func (l Loadable[T]) IsLoaded() bool { return l.state == Loaded }
func (l Loadable[T]) Err() error     { return l.err }

// Get returns the value and whether it is authoritative.
func (l Loadable[T]) Get() (T, bool) {
	return l.value, l.state == Loaded
}
