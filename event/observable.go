// Package event provides a synchronous publish/subscribe channel.
package event

// Observer is a registration handle returned by Observable.Add.
type Observer[T any] struct {
	fn      func(T)
	removed bool
}

// Observable invokes its observers synchronously, in registration order.
// It is not safe for concurrent use; owners call it from the frame loop.
type Observable[T any] struct {
	observers []*Observer[T]
}

func (o *Observable[T]) Add(fn func(T)) *Observer[T] {
	obs := &Observer[T]{fn: fn}
	o.observers = append(o.observers, obs)
	return obs
}

func (o *Observable[T]) Remove(obs *Observer[T]) {
	if obs == nil {
		return
	}
	obs.removed = true
	for i, cur := range o.observers {
		if cur == obs {
			o.observers = append(o.observers[:i:i], o.observers[i+1:]...)
			return
		}
	}
}

// Notify delivers v. An observer removed by an earlier observer in the same
// notification is skipped.
func (o *Observable[T]) Notify(v T) {
	snapshot := make([]*Observer[T], len(o.observers))
	copy(snapshot, o.observers)
	for _, obs := range snapshot {
		if obs.removed {
			continue
		}
		obs.fn(v)
	}
}

// Clear drops every observer. Pending snapshots skip them too.
func (o *Observable[T]) Clear() {
	for _, obs := range o.observers {
		obs.removed = true
	}
	o.observers = nil
}

func (o *Observable[T]) Len() int {
	return len(o.observers)
}
