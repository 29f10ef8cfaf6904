package client

// Result is the state of a query as seen by a view: loading, failed, or holding data.
// Data from the previous successful load is kept while a new one is in flight.
type Result[T any] struct {
	Loading bool
	Err     error
	Data    *T
}

func (r Result[T]) loading() Result[T] {
	return Result[T]{Loading: true, Data: r.Data}
}

func succeeded[T any](data *T) Result[T] {
	return Result[T]{Data: data}
}

func failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}
