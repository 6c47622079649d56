package lock

import (
	"context"
	"sync"
	"time"

	apptransfer "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/domain/shared"
)

// slot is a one-token semaphore shared by every waiter on a key
type slot struct {
	token   chan struct{}
	waiters int
}

// MemoryLocker implements RequestLocker with per-key in-process semaphores.
// This is suitable for single-instance deployments and testing.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

// NewMemoryLocker creates a locker; wait bounds how long Acquire blocks (0 waits for ctx only)
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{
		slots: make(map[string]*slot),
		wait:  wait,
	}
}

// Acquire blocks until key is free, ctx is done or the wait elapses
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (apptransfer.ReleaseFunc, error) {
	s := l.join(key)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, s)
		return nil, ctx.Err()
	case <-timeout:
		l.leave(key, s)
		return nil, shared.ErrConcurrencyConflict.WithDetail("lock", key)
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.token
			l.leave(key, s)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) join(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.waiters++
	return s
}

func (l *MemoryLocker) leave(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, key)
	}
}

// Len returns the number of keys currently held or awaited
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

var _ apptransfer.RequestLocker = (*MemoryLocker)(nil)
