package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Limits configures a Controller. Zero values mean unlimited.
type Limits struct {
	// MemoryBytes caps the bytes reserved for vector and graph storage.
	MemoryBytes int64
	// IOBytesPerSec caps snapshot read and write throughput.
	IOBytesPerSec int64
}

// Controller accounts memory reservations and paces IO.
// A nil *Controller is valid and imposes no limits.
type Controller struct {
	limits Limits

	mem  *semaphore.Weighted // nil if unlimited
	used atomic.Int64

	io *rate.Limiter
}

// NewController returns a controller enforcing l.
func NewController(l Limits) *Controller {
	c := &Controller{limits: l}

	if l.MemoryBytes > 0 {
		c.mem = semaphore.NewWeighted(l.MemoryBytes)
	}
	if l.IOBytesPerSec > 0 {
		c.io = rate.NewLimiter(rate.Limit(l.IOBytesPerSec), int(l.IOBytesPerSec))
	}

	return c
}

// Reserve claims n bytes without blocking.
func (c *Controller) Reserve(n int64) error {
	if c == nil || n <= 0 {
		return nil
	}
	if c.mem != nil && !c.mem.TryAcquire(n) {
		return ErrMemoryLimitExceeded
	}
	c.used.Add(n)
	return nil
}

// Release returns n previously reserved bytes.
func (c *Controller) Release(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.mem != nil {
		c.mem.Release(n)
	}
	c.used.Add(-n)
}

// Used returns the reserved byte count.
func (c *Controller) Used() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

// Limit returns the memory cap, 0 if unlimited.
func (c *Controller) Limit() int64 {
	if c == nil {
		return 0
	}
	return c.limits.MemoryBytes
}

// WaitIO blocks until n bytes of IO budget are available.
// Requests larger than the burst are split.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.io == nil {
		return nil
	}
	burst := c.io.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.io.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
