package audio

import "sync"

// WaveformWindow is the number of trailing mono samples retained for the
// display collaborator.
const WaveformWindow = 2048

// Ring is a thread-safe circular buffer of trailing audio samples. The
// device callback writes into it while a render loop reads snapshots;
// neither side blocks the other for long.
type Ring struct {
	mu       sync.RWMutex
	data     []float32
	writePos int
	size     int
	filled   int
}

// NewRing creates a ring buffer with the given capacity in samples.
func NewRing(size int) *Ring {
	return &Ring{
		data: make([]float32, size),
		size: size,
	}
}

// Write adds samples to the ring, overwriting the oldest ones.
func (r *Ring) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range samples {
		r.data[r.writePos] = s
		r.writePos = (r.writePos + 1) % r.size
		if r.filled < r.size {
			r.filled++
		}
	}
}

// Read returns a copy of the last n samples in arrival order.
func (r *Ring) Read(n int) []float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.filled {
		n = r.filled
	}
	if n <= 0 {
		return nil
	}

	result := make([]float32, n)
	start := (r.writePos - n + r.size) % r.size
	for i := 0; i < n; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}

// Clear empties the ring.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writePos = 0
	r.filled = 0
}

// Len returns the number of samples currently held.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filled
}
