package bridge

import "sync"

// Queue is an unbounded FIFO of bytes with any number of producers and a
// single consumer. Send never blocks; TryReceiveAll never blocks.
type Queue struct {
	mu     sync.Mutex
	buf    []byte
	closed bool
}

// NewQueue returns an empty open queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Send appends b. It fails only after the consumer has closed the queue.
func (q *Queue) Send(b ...byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.buf = append(q.buf, b...)
	return nil
}

// TryReceiveAll appends everything currently queued to dst and returns it.
// With nothing queued it returns dst unchanged.
func (q *Queue) TryReceiveAll(dst []byte) []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return dst
	}
	dst = append(dst, q.buf...)
	q.buf = q.buf[:0]
	return dst
}

// Len reports how many bytes are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Close is called by the consumer on teardown. Pending bytes are discarded
// and the count is returned so it can be reported.
func (q *Queue) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	n := len(q.buf)
	q.buf = nil
	return n
}
