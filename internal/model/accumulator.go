package model

// Accumulator collects result batches in insertion order and concatenates
// them once.
type Accumulator[T any] struct {
	batches [][]T
	n       int
}

// Add appends a batch. Empty batches are ignored.
func (a *Accumulator[T]) Add(batch []T) {
	if len(batch) == 0 {
		return
	}
	a.batches = append(a.batches, batch)
	a.n += len(batch)
}

// Len is the total number of rows across batches.
func (a *Accumulator[T]) Len() int { return a.n }

// Batches is the number of non-empty batches added.
func (a *Accumulator[T]) Batches() int { return len(a.batches) }

// Rows returns every row in batch order.
func (a *Accumulator[T]) Rows() []T {
	out := make([]T, 0, a.n)
	for _, b := range a.batches {
		out = append(out, b...)
	}
	return out
}
