package relay

import "sync"

// PendingQueue holds messages for the MSC while it cannot take them. Order
// is preserved; there is no bound because the reset timer limits how long
// the queue can grow.
type PendingQueue struct {
	items [][]byte
	mu    sync.Mutex
}

// Push appends msg.
func (q *PendingQueue) Push(msg []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, msg)
}

// Drain removes and returns all messages in arrival order.
func (q *PendingQueue) Drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Clear discards all messages and returns how many there were.
func (q *PendingQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	q.items = nil
	return n
}

// Len returns the number of queued messages.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
