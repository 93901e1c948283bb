package ringbuffer

import (
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. Counters are atomic so a metrics scraper or
// HTTP handler may read them while the owning goroutine mutates the buffer; that
// does not make the buffer itself safe for concurrent use.
type Statistics struct {
	pushes     atomic.Int64
	pops       atomic.Int64
	peeks      atomic.Int64
	evictions  atomic.Int64
	rejections atomic.Int64

	currentSize atomic.Int64
	maxSize     atomic.Int64
	startTime   atomic.Int64 // unix nanoseconds
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.startTime.Store(time.Now().UnixNano())
	return s
}

// Push records a stored element.
func (s *Statistics) Push() {
	s.pushes.Add(1)
}

// Pop records a removed element.
func (s *Statistics) Pop() {
	s.pops.Add(1)
}

// Peek records a read that did not remove an element.
func (s *Statistics) Peek() {
	s.peeks.Add(1)
}

// Evict records an element discarded by the Overwrite policy or by Clear.
func (s *Statistics) Evict() {
	s.evictions.Add(1)
}

// Reject records a push refused by the Reject policy.
func (s *Statistics) Reject() {
	s.rejections.Add(1)
}

// UpdateSize records the current number of elements. Only the goroutine that
// owns the buffer calls it.
func (s *Statistics) UpdateSize(size int64) {
	s.currentSize.Store(size)
	if size > s.maxSize.Load() {
		s.maxSize.Store(size)
	}
}

// Pushes returns the total number of stored elements.
func (s *Statistics) Pushes() int64 { return s.pushes.Load() }

// Pops returns the total number of removed elements.
func (s *Statistics) Pops() int64 { return s.pops.Load() }

// Peeks returns the total number of non-removing reads.
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Evictions returns the total number of discarded elements.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// Rejections returns the total number of refused pushes.
func (s *Statistics) Rejections() int64 { return s.rejections.Load() }

// CurrentSize returns the last recorded number of elements.
func (s *Statistics) CurrentSize() int64 { return s.currentSize.Load() }

// MaxSize returns the largest number of elements the buffer has held.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }

// Uptime returns the time since creation or the last Reset.
func (s *Statistics) Uptime() time.Duration {
	return time.Since(time.Unix(0, s.startTime.Load()))
}

// Throughput returns the average number of pushes per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.Pushes()) / elapsed.Seconds()
}

// EvictionRate returns the fraction of pushes that evicted an element (0.0 to 1.0).
func (s *Statistics) EvictionRate() float64 {
	pushes := s.Pushes()
	if pushes == 0 {
		return 0.0
	}
	return float64(s.Evictions()) / float64(pushes)
}

// RejectionRate returns the fraction of push attempts that were refused (0.0 to 1.0).
func (s *Statistics) RejectionRate() float64 {
	rejections := s.Rejections()
	attempts := s.Pushes() + rejections
	if attempts == 0 {
		return 0.0
	}
	return float64(rejections) / float64(attempts)
}

// Utilization returns the current fill level relative to capacity (0.0 to 1.0).
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity <= 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Reset zeroes all counters and restarts the uptime clock. The current size is kept.
func (s *Statistics) Reset() {
	s.pushes.Store(0)
	s.pops.Store(0)
	s.peeks.Store(0)
	s.evictions.Store(0)
	s.rejections.Store(0)
	s.maxSize.Store(s.currentSize.Load())
	s.startTime.Store(time.Now().UnixNano())
}

// StatsSummary is a point-in-time snapshot of Statistics.
type StatsSummary struct {
	Pushes        int64         `json:"pushes"`
	Pops          int64         `json:"pops"`
	Peeks         int64         `json:"peeks"`
	Evictions     int64         `json:"evictions"`
	Rejections    int64         `json:"rejections"`
	CurrentSize   int64         `json:"current_size"`
	MaxSize       int64         `json:"max_size"`
	Throughput    float64       `json:"throughput"`
	EvictionRate  float64       `json:"eviction_rate"`
	RejectionRate float64       `json:"rejection_rate"`
	Uptime        time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Pushes:        s.Pushes(),
		Pops:          s.Pops(),
		Peeks:         s.Peeks(),
		Evictions:     s.Evictions(),
		Rejections:    s.Rejections(),
		CurrentSize:   s.CurrentSize(),
		MaxSize:       s.MaxSize(),
		Throughput:    s.Throughput(),
		EvictionRate:  s.EvictionRate(),
		RejectionRate: s.RejectionRate(),
		Uptime:        s.Uptime(),
	}
}
