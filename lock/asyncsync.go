package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// syncHeld is stored in the reader count while a sync holder owns the lock.
const syncHeld int32 = -200000

const (
	writerFree uint32 = 0
	writerHeld uint32 = 1
)

// AsyncSyncLock is a reader/writer spin lock. Any number of goroutines may
// hold it in async mode at once; a sync holder excludes every other holder.
//
// A goroutine calling SyncLock registers itself as a waiter before waiting
// for async holders to drain, which stops new async acquisitions from
// entering. A steady stream of async holders therefore cannot postpone a
// sync acquisition indefinitely.
//
// The zero value is unlocked. Neither mode is reentrant.
type AsyncSyncLock struct {
	_       cpu.CacheLinePad
	readers atomic.Int32
	_       cpu.CacheLinePad
	waiters atomic.Int32
	_       cpu.CacheLinePad
	writer  atomic.Uint32
	_       cpu.CacheLinePad
}

// AsyncLock acquires the lock in async mode. It spins while a sync
// acquisition is pending or held.
func (l *AsyncSyncLock) AsyncLock() {
	if l.tryAsyncLock() {
		return
	}
	sink := uint32(1)
	for !l.tryAsyncLock() {
		sink = consumeCPU(sink)
	}
}

func (l *AsyncSyncLock) tryAsyncLock() bool {
	if l.waiters.Load() != 0 {
		return false
	}
	r := l.readers.Load()
	return r != syncHeld && l.readers.CompareAndSwap(r, r+1)
}

// AsyncUnlock releases one async hold.
func (l *AsyncSyncLock) AsyncUnlock() {
	l.readers.Add(-1)
}

// SyncLock acquires the lock exclusively.
func (l *AsyncSyncLock) SyncLock() {
	l.waiters.Add(1)
	sink := uint32(1)
	for !l.readers.CompareAndSwap(0, syncHeld) {
		sink = consumeCPU(sink)
	}
	for !l.writer.CompareAndSwap(writerFree, writerHeld) {
		sink = consumeCPU(sink)
	}
}

// SyncUnlock releases the exclusive hold.
func (l *AsyncSyncLock) SyncUnlock() {
	l.writer.Store(writerFree)
	l.readers.Store(0)
	l.waiters.Add(-1)
}

// Lock is SyncLock, so that AsyncSyncLock satisfies sync.Locker.
func (l *AsyncSyncLock) Lock() { l.SyncLock() }

// Unlock is SyncUnlock.
func (l *AsyncSyncLock) Unlock() { l.SyncUnlock() }

// RLocker returns a sync.Locker that acquires l in async mode.
func (l *AsyncSyncLock) RLocker() sync.Locker {
	return (*asyncLocker)(l)
}

type asyncLocker AsyncSyncLock

func (r *asyncLocker) Lock()   { (*AsyncSyncLock)(r).AsyncLock() }
func (r *asyncLocker) Unlock() { (*AsyncSyncLock)(r).AsyncUnlock() }

// TryLock is not supported and always panics.
func (l *AsyncSyncLock) TryLock() bool {
	unsupported("AsyncSyncLock.TryLock")
	return false
}

// TryLockFor is not supported and always panics.
func (l *AsyncSyncLock) TryLockFor(time.Duration) bool {
	unsupported("AsyncSyncLock.TryLockFor")
	return false
}

// LockContext is not supported and always panics.
func (l *AsyncSyncLock) LockContext(context.Context) error {
	unsupported("AsyncSyncLock.LockContext")
	return nil
}

func (l *AsyncSyncLock) String() string {
	return fmt.Sprintf("AsyncSyncLock{readers=%d, waiters=%d, writer=%d}",
		l.readers.Load(), l.waiters.Load(), l.writer.Load())
}
