package mqtt

import "testing"

func TestOfflineQueueEmptyDrain(t *testing.T) {
	q := newOfflineQueue(10)
	msgs, dropped := q.drain()
	if msgs != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(msgs))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
}

func TestOfflineQueuePushAndDrain(t *testing.T) {
	q := newOfflineQueue(10)
	for i := 0; i < 5; i++ {
		q.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if q.len() != 5 {
		t.Fatalf("len: got %d, want 5", q.len())
	}

	msgs, dropped := q.drain()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 items, got %d", len(msgs))
	}
	if dropped != 0 {
		t.Errorf("expected 0 dropped, got %d", dropped)
	}
	for i := 0; i < 5; i++ {
		if msgs[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, msgs[i].payload[0])
		}
	}

	// Second drain should be empty
	msgs, _ = q.drain()
	if msgs != nil {
		t.Errorf("expected nil from second drain, got %d items", len(msgs))
	}
}

func TestOfflineQueueOverflowDropsOldest(t *testing.T) {
	capacity := 5
	q := newOfflineQueue(capacity)

	// Push capacity+3 items (0..7); the queue should keep the most recent 5 (3..7).
	for i := 0; i < capacity+3; i++ {
		evicted := q.push(queuedMsg{topic: "t", payload: []byte{byte(i)}})
		if wantEvict := i >= capacity; evicted != wantEvict {
			t.Errorf("push %d: evicted=%v, want %v", i, evicted, wantEvict)
		}
	}

	msgs, dropped := q.drain()
	if len(msgs) != capacity {
		t.Fatalf("expected %d items, got %d", capacity, len(msgs))
	}
	if dropped != 3 {
		t.Errorf("dropped: got %d, want 3", dropped)
	}
	for i := 0; i < capacity; i++ {
		want := byte(i + 3)
		if msgs[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, msgs[i].payload[0])
		}
	}
}

func TestOfflineQueueReuseAfterDrain(t *testing.T) {
	q := newOfflineQueue(3)
	for i := 0; i < 5; i++ {
		q.push(queuedMsg{payload: []byte{byte(i)}})
	}
	q.drain()

	q.push(queuedMsg{payload: []byte{42}})
	msgs, dropped := q.drain()
	if len(msgs) != 1 || msgs[0].payload[0] != 42 {
		t.Errorf("unexpected contents after reuse: %+v", msgs)
	}
	if dropped != 0 {
		t.Errorf("dropped counter not reset: %d", dropped)
	}
}
