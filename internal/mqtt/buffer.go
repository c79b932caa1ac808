package mqtt

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// offlineQueue holds messages while the broker is unreachable. Fixed
// capacity; once full, the oldest message is dropped to make room. Not safe
// for concurrent use — the publisher serializes access.
type offlineQueue struct {
	msgs     []queuedMsg
	capacity int
	dropped  int // messages lost to overflow since the last drain
}

func newOfflineQueue(capacity int) *offlineQueue {
	return &offlineQueue{capacity: capacity}
}

// push enqueues a message, evicting the oldest when full.
// Reports whether an older message was dropped to make room.
func (q *offlineQueue) push(msg queuedMsg) bool {
	evicted := false
	if len(q.msgs) == q.capacity {
		copy(q.msgs, q.msgs[1:])
		q.msgs = q.msgs[:q.capacity-1]
		q.dropped++
		evicted = true
	}
	q.msgs = append(q.msgs, msg)
	return evicted
}

// drain returns all queued messages in order and empties the queue.
func (q *offlineQueue) drain() ([]queuedMsg, int) {
	if len(q.msgs) == 0 {
		return nil, 0
	}
	out := q.msgs
	dropped := q.dropped
	q.msgs = nil
	q.dropped = 0
	return out, dropped
}

func (q *offlineQueue) len() int {
	return len(q.msgs)
}
