package native

import "container/heap"

var _ heap.Interface = (*candidateQueue)(nil)

// candidate is a graph slot paired with its distance to the query.
type candidate struct {
	slot uint32
	dist float32
}

// candidateQueue is a binary heap of candidates. With farthest set the top is
// the largest distance, otherwise the smallest.
type candidateQueue struct {
	farthest bool
	items    []candidate
}

func newCandidateQueue(farthest bool, capacity int) *candidateQueue {
	return &candidateQueue{farthest: farthest, items: make([]candidate, 0, capacity)}
}

func (q *candidateQueue) Len() int { return len(q.items) }

func (q *candidateQueue) Less(i, j int) bool {
	if q.farthest {
		return q.items[i].dist > q.items[j].dist
	}
	return q.items[i].dist < q.items[j].dist
}

func (q *candidateQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *candidateQueue) Push(x any) { q.items = append(q.items, x.(candidate)) }

func (q *candidateQueue) Pop() any {
	n := len(q.items)
	item := q.items[n-1]
	q.items = q.items[:n-1]
	return item
}

func (q *candidateQueue) push(c candidate) { heap.Push(q, c) }

func (q *candidateQueue) pop() candidate { return heap.Pop(q).(candidate) }

func (q *candidateQueue) top() candidate { return q.items[0] }

// drainAscending empties the queue and returns its items nearest first.
func (q *candidateQueue) drainAscending() []candidate {
	out := make([]candidate, q.Len())
	if q.farthest {
		for i := len(out) - 1; i >= 0; i-- {
			out[i] = q.pop()
		}
	} else {
		for i := range out {
			out[i] = q.pop()
		}
	}
	return out
}
