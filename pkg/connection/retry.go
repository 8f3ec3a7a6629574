package connection

import (
	"sync"
	"time"
)

// DefaultRetryDelay is the flat delay between a close and the next
// connection attempt.
const DefaultRetryDelay = 5000 * time.Millisecond

// Retry tracks reconnection attempts at a fixed interval.
type Retry struct {
	mu sync.Mutex

	delay    time.Duration
	attempts int
}

// NewRetry creates a Retry with the given delay. A non-positive delay
// selects DefaultRetryDelay.
func NewRetry(delay time.Duration) *Retry {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &Retry{delay: delay}
}

// Next records an attempt and returns the delay before it.
func (r *Retry) Next() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	return r.delay
}

// Reset clears the attempt counter. Call this after a channel opens.
func (r *Retry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = 0
}

// Attempts returns the number of attempts since the last reset.
func (r *Retry) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Delay returns the retry interval.
func (r *Retry) Delay() time.Duration {
	return r.delay
}
