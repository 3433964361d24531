package lock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

const (
	spinUnlocked uint32 = 0
	spinLocked   uint32 = 1
)

// SpinLock is an exclusive lock acquired by compare-and-swap with busy-wait
// backoff. The zero value is unlocked.
//
// SpinLock is not reentrant and not fair: Lock called twice by the same
// holder spins forever, and any waiter may win the next acquisition.
type SpinLock struct {
	_     cpu.CacheLinePad
	state atomic.Uint32
	_     cpu.CacheLinePad
}

// TryLock makes a single attempt to acquire the lock.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(spinUnlocked, spinLocked)
}

// Lock spins until the lock is acquired.
func (l *SpinLock) Lock() {
	if l.TryLock() {
		return
	}
	sink := uint32(1)
	for !l.TryLock() {
		sink = consumeCPU(sink)
	}
}

// Unlock releases the lock. It does not check that the caller holds it.
func (l *SpinLock) Unlock() {
	l.state.Store(spinUnlocked)
}

// Locked reports whether the lock is currently held by anyone.
func (l *SpinLock) Locked() bool {
	return l.state.Load() == spinLocked
}

// TryLockFor is not supported and always panics.
func (l *SpinLock) TryLockFor(time.Duration) bool {
	unsupported("SpinLock.TryLockFor")
	return false
}

// LockContext is not supported and always panics.
func (l *SpinLock) LockContext(context.Context) error {
	unsupported("SpinLock.LockContext")
	return nil
}

func (l *SpinLock) String() string {
	status := "unlocked"
	if l.Locked() {
		status = "locked"
	}
	return fmt.Sprintf("SpinLock{status=%s}", status)
}
