package importer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrBusy is returned when every import slot stays occupied for the whole
// wait window. Callers should ask the user to retry shortly.
var ErrBusy = errors.New("import pipeline is busy")

const (
	defaultMaxConcurrent  = 4
	defaultAcquireTimeout = 10 * time.Second
)

// Limiter caps the number of CSV imports running at once. Parsing a large
// upload holds memory and a database transaction, so unbounded parallelism
// would let a burst of uploads exhaust both.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLimiter builds a Limiter allowing maxConcurrent parallel imports.
// Non-positive arguments fall back to defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultAcquireTimeout
	}
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot frees up, the wait window expires (ErrBusy),
// or ctx is cancelled. Every successful Acquire needs a matching Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrBusy
	}
}

// Release frees a slot acquired earlier.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active reports how many imports are currently running.
func (l *Limiter) Active() int {
	return int(l.active.Load())
}
