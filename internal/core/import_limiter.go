package core

// import_limiter.go bounds how many uploads are parsed at once.
//
// Parsing a workbook happens outside the ledger mutex, so without a bound a
// burst of large uploads could hold many decoded sheets in memory together.
// Waiters give up after maxWait with ErrTooManyImports. Drain lets shutdown
// wait for running imports.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyImports is returned when no import slot frees up within the wait
// limit. Clients should retry after a short delay.
var ErrTooManyImports = errors.New("too many concurrent imports")

const (
	// DefaultMaxConcurrentImports is used when the configured limit is not positive.
	DefaultMaxConcurrentImports = 2

	// DefaultMaxImportWait is used when the configured wait is not positive.
	DefaultMaxImportWait = 15 * time.Second
)

// ImportLimiter is a counting semaphore with a bounded wait.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewImportLimiter allows at most maxConcurrent imports at a time.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxImportWait
	}

	idle := make(chan struct{})
	close(idle)

	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting up to the limiter's maxWait.
// It returns ErrTooManyImports on timeout, or ctx.Err() if ctx ends first.
// Every successful Acquire must be paired with Release.
func (l *ImportLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.inc()
		return nil
	case <-timer.C:
		return ErrTooManyImports
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without waiting.
func (l *ImportLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.inc()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *ImportLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *ImportLimiter) inc() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// Active returns the number of imports holding a slot.
func (l *ImportLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the configured slot count.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Drain blocks until no import holds a slot or ctx ends.
func (l *ImportLimiter) Drain(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle := l.idle
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-idle:
		}

		// A new import may have started between the close and this check.
		if l.Active() == 0 {
			return nil
		}
	}
}
