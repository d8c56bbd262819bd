// Package pidpool implements the client core's packet identifier
// allocator: a monotonic-with-free-list allocator over the 16-bit
// non-zero identifier space MQTT packet identifiers live in.
//
// The algorithm is carried over from the Rust original's
// FreePidList (see original_source/src/client/client.rs,
// free_write_pids/alloc_write_pid/free_write_pid); Go's goroutine
// scheduler offers no equivalent to the single-threaded-executor
// assumption that let the original use a RefCell, so Pool guards its
// state with a mutex instead.
package pidpool

import "sync"

// Pool allocates and frees 16-bit non-zero packet identifiers. The
// zero value is ready to use. Pool is safe for concurrent use.
type Pool struct {
	mu   sync.Mutex
	next uint32 // next PID to hand out via the monotonic path, starts at 1
	free []uint16
	held map[uint16]struct{}
}

// Alloc returns an unused, currently-unheld PID and marks it held. It
// returns (0, false) if the entire 16-bit non-zero space is already
// allocated.
func (p *Pool) Alloc() (uint16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held == nil {
		p.held = make(map[uint16]struct{})
	}
	if p.next == 0 {
		p.next = 1
	}

	var pid uint16
	if n := len(p.free); n > 0 {
		pid = p.free[n-1]
		p.free = p.free[:n-1]
	} else if p.next <= 65535 {
		pid = uint16(p.next)
		p.next++
	} else {
		return 0, false
	}
	p.held[pid] = struct{}{}
	return pid, true
}

// Free releases pid back to the pool. It returns true if pid was
// already free (a double-free, which callers should treat as a
// PidExhausted-class protocol error per the client core's error
// taxonomy), false on a normal, correct free.
func (p *Pool) Free(pid uint16) (alreadyFree bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held == nil {
		p.held = make(map[uint16]struct{})
	}
	if _, ok := p.held[pid]; !ok {
		return true
	}
	delete(p.held, pid)
	p.free = append(p.free, pid)
	return false
}
