package throttle

// waiter is one queued submission waiting for a concurrency slot.
type waiter struct {
	priority int
	seq      int64         // submission order, breaks priority ties FIFO
	ready    chan struct{} // closed when a slot is granted
	index    int           // heap index, -1 once popped
}

// waiterQueue implements heap.Interface. Higher priority pops first; equal
// priorities pop in submission order.
type waiterQueue []*waiter

func (q waiterQueue) Len() int { return len(q) }

func (q waiterQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q waiterQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *waiterQueue) Push(x any) {
	w := x.(*waiter)
	w.index = len(*q)
	*q = append(*q, w)
}

func (q *waiterQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil // avoid memory leak
	w.index = -1
	*q = old[0 : n-1]
	return w
}
