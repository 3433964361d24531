// Package lock provides the two spin-based mutual exclusion primitives used
// between the render loop and the UI loop.
//
// [SpinLock] is an exclusive, non-reentrant lock. [AsyncSyncLock] admits any
// number of concurrent "async" holders or a single "sync" holder, and gives
// a pending sync acquisition priority over new async entries.
//
// Neither lock ever parks the goroutine: waiters busy-spin between CAS
// attempts. Critical sections guarded by these locks must stay in the range
// of a few memory copies. Timed and context-aware acquisition is not
// supported and panics with an error wrapping [ErrUnsupported]; so does
// [AsyncSyncLock.TryLock].
package lock

import (
	"errors"
	"fmt"
)

// ErrUnsupported is wrapped by the panic value of every unsupported
// acquisition variant.
var ErrUnsupported = errors.ErrUnsupported

func unsupported(op string) {
	panic(fmt.Errorf("lock: %s: %w", op, ErrUnsupported))
}

// consumeCPU burns a few cycles between acquisition attempts without
// yielding the goroutine. The argument carries state from the previous call
// so the work cannot be folded away.
//
//go:noinline
func consumeCPU(v uint32) uint32 {
	n := v * v
	n += v >> 1
	n += v & n
	n += v ^ n
	n += n << (v & 7)
	n += n | v
	n += v & n
	n += v ^ n
	n += n << (v & 3)
	n += n | v
	return n | 1
}
