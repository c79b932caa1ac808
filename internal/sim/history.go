package sim

// DefaultHistoryCapacity is the number of trend points retained.
const DefaultHistoryCapacity = 100

// HistoryPoint is an immutable trend sample built from Telemetry.
type HistoryPoint struct {
	// Label is the elapsed time formatted mm:ss.
	Label string `json:"t"`

	// PPM is the concentration at sample time, rounded to 2 decimals.
	PPM float64 `json:"ppm"`

	// YieldMg is the cumulative yield at sample time, rounded to 2 decimals.
	YieldMg float64 `json:"yield_mg"`
}

// History is a fixed-capacity FIFO of trend samples. Once full, appending
// overwrites the oldest sample so exactly the most recent capacity points
// remain. Not safe for concurrent use — caller must synchronize.
type History struct {
	buf      []HistoryPoint
	capacity int
	head     int // next write position
	count    int
}

// NewHistory creates a History holding at most capacity points.
// A capacity ≤ 0 falls back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		buf:      make([]HistoryPoint, capacity),
		capacity: capacity,
	}
}

// Append adds a point, evicting the oldest when full. O(1).
func (h *History) Append(p HistoryPoint) {
	h.buf[h.head] = p
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
}

// Points returns the retained samples in chronological order.
// Returns nil when empty. The result is a copy, safe to hand out.
func (h *History) Points() []HistoryPoint {
	if h.count == 0 {
		return nil
	}

	result := make([]HistoryPoint, h.count)
	// Oldest item is at (head - count) mod capacity
	start := (h.head - h.count + h.capacity) % h.capacity
	for i := 0; i < h.count; i++ {
		result[i] = h.buf[(start+i)%h.capacity]
	}
	return result
}

// Clear discards all samples.
func (h *History) Clear() {
	h.head = 0
	h.count = 0
}

// Len returns the number of retained samples.
func (h *History) Len() int {
	return h.count
}
