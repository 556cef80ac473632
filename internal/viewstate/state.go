package viewstate

import "context"

// Status is the phase of an asynchronous result.
type Status int

const (
	Loading Status = iota
	Empty
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Empty:
		return "empty"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "unknown"
}

// State carries Data only when Status is Success and Err only when it is Error.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

func NewLoading[T any]() State[T] { return State[T]{Status: Loading} }

func NewEmpty[T any]() State[T] { return State[T]{Status: Empty} }

func NewSuccess[T any](data T) State[T] { return State[T]{Status: Success, Data: data} }

func NewError[T any](err error) State[T] { return State[T]{Status: Error, Err: err} }

// Await returns the first value of f that is no longer Loading.
func Await[T any](ctx context.Context, f *Flow[State[T]]) (State[T], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for s := range f.Subscribe(ctx) {
		if s.Status != Loading {
			return s, nil
		}
	}
	return State[T]{}, ctx.Err()
}
