package call

// Queue is the FIFO of calls issued by authoritative logic during a tick and
// applied at the start of the next one. Game-loop goroutine only.
type Queue struct {
	pending []Call
	issued  uint64
}

func NewQueue() *Queue {
	return &Queue{pending: make([]Call, 0, 64)}
}

// Issue appends a call.
func (q *Queue) Issue(c Call) {
	q.pending = append(q.pending, c)
	q.issued++
}

// Drain returns the pending calls in issue order and empties the queue.
// Calls issued while the caller processes the returned slice land in the
// next drain.
func (q *Queue) Drain() []Call {
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = make([]Call, 0, cap(out))
	return out
}

// Len returns the number of pending calls.
func (q *Queue) Len() int { return len(q.pending) }

// Issued returns how many calls were ever issued.
func (q *Queue) Issued() uint64 { return q.issued }
