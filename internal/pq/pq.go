// Package pq provides a generic min-priority queue.
package pq

import (
	"container/heap"
	"slices"
)

// Queue is a min-heap of T ordered by a comparison function.
//
// The zero value is not usable - use [New].
type Queue[T any] struct {
	h *items[T]
}

// New returns an empty queue ordered by cmp, which must return a negative
// number when a sorts before b.
func New[T any](cmp func(a, b T) int) *Queue[T] {
	return &Queue[T]{h: &items[T]{cmp: cmp}}
}

// Push adds v.
func (q *Queue[T]) Push(v T) { heap.Push(q.h, v) }

// Pop removes and returns the smallest element. It panics on an empty queue.
func (q *Queue[T]) Pop() T { return heap.Pop(q.h).(T) }

// Len returns the number of queued elements.
func (q *Queue[T]) Len() int { return len(q.h.data) }

// Clone returns an independent copy of q sharing the comparison function.
func (q *Queue[T]) Clone() *Queue[T] {
	return &Queue[T]{h: &items[T]{cmp: q.h.cmp, data: slices.Clone(q.h.data)}}
}

type items[T any] struct {
	cmp  func(a, b T) int
	data []T
}

func (h *items[T]) Len() int           { return len(h.data) }
func (h *items[T]) Less(i, j int) bool { return h.cmp(h.data[i], h.data[j]) < 0 }
func (h *items[T]) Swap(i, j int)      { h.data[i], h.data[j] = h.data[j], h.data[i] }
func (h *items[T]) Push(x any)         { h.data = append(h.data, x.(T)) }
func (h *items[T]) Pop() any {
	n := len(h.data) - 1
	v := h.data[n]
	var zero T
	h.data[n] = zero
	h.data = h.data[:n]
	return v
}
