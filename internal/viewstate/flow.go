package viewstate

import (
	"context"
	"sync"
)

// Flow holds a current value and pushes changes to subscribers. A slow
// subscriber only ever sees the latest value it has not yet received.
type Flow[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	nextID  int
	subs    map[int]chan struct{}
}

func NewFlow[T any](initial T) *Flow[T] {
	return &Flow[T]{value: initial, subs: make(map[int]chan struct{})}
}

func (f *Flow[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

func (f *Flow[T]) Set(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = v
	f.version++
	for _, ch := range f.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe delivers the current value immediately and then every change
// until ctx is done, when the channel is closed.
func (f *Flow[T]) Subscribe(ctx context.Context) <-chan T {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	wake := make(chan struct{}, 1)
	wake <- struct{}{}
	f.subs[id] = wake
	f.mu.Unlock()

	out := make(chan T)
	go func() {
		defer close(out)
		defer func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		}()

		var seen uint64
		first := true
		for {
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}

			f.mu.Lock()
			v, version := f.value, f.version
			f.mu.Unlock()
			if !first && version == seen {
				continue
			}
			first, seen = false, version

			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
