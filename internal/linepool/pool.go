// Package linepool recycles line buffers between a reader and the goroutine
// that consumes the lines.
//
// Buffers are either dead (no useful data, ready to be filled) or live
// (holding a line waiting to be processed). Taking a buffer hands out a Ref;
// releasing the Ref moves the buffer to the opposite set, so memory cycles
// dead -> live -> dead without new allocations once buffers have grown to the
// longest line seen.
//
// A Pool is owned by a single goroutine and is not safe for concurrent use.
package linepool

type target uint8

const (
	toLive target = iota
	toDead
)

// Pool holds dead buffers and a FIFO queue of live ones.
type Pool struct {
	dead [][]byte
	live [][]byte // ring buffer, head is the oldest line
	head int
	size int
	cap  int
}

// Ref is a buffer checked out of a Pool. It must be released exactly once.
type Ref struct {
	pool   *Pool
	buf    []byte
	target target
}

// New returns a pool of capacity dead buffers.
func New(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool{
		dead: make([][]byte, capacity),
		live: make([][]byte, capacity),
		cap:  capacity,
	}
	for i := range p.dead {
		p.dead[i] = make([]byte, 0, 128)
	}
	return p
}

// Live is the number of buffers holding unprocessed lines.
func (p *Pool) Live() int { return p.size }

// Dead is the number of buffers ready to be filled.
func (p *Pool) Dead() int { return len(p.dead) }

// Cap is the total number of buffers owned by the pool.
func (p *Pool) Cap() int { return p.cap }

// TakeDead checks out an empty buffer. On Release it joins the live queue
// unless StayDead was called.
func (p *Pool) TakeDead() (Ref, bool) {
	n := len(p.dead)
	if n == 0 {
		return Ref{}, false
	}
	buf := p.dead[n-1][:0]
	p.dead[n-1] = nil
	p.dead = p.dead[:n-1]
	return Ref{pool: p, buf: buf, target: toLive}, true
}

// TakeLive checks out the oldest live line. On Release it returns to the dead
// set.
func (p *Pool) TakeLive() (Ref, bool) {
	if p.size == 0 {
		return Ref{}, false
	}
	buf := p.live[p.head]
	p.live[p.head] = nil
	p.head = (p.head + 1) % p.cap
	p.size--
	return Ref{pool: p, buf: buf, target: toDead}, true
}

// Bytes returns the buffer contents.
func (r *Ref) Bytes() []byte { return r.buf }

// Set replaces the buffer contents with b, reusing its storage.
func (r *Ref) Set(b []byte) {
	r.buf = append(r.buf[:0], b...)
}

// Buffer exposes the underlying slice so a reader can append into it; the
// result must be handed back with Set or SetBuffer.
func (r *Ref) Buffer() []byte { return r.buf }

// SetBuffer stores a slice previously obtained from Buffer and grown by the
// caller.
func (r *Ref) SetBuffer(b []byte) { r.buf = b }

// StayDead sends the buffer back to the dead set on Release. Use it when a
// fill from TakeDead did not produce a line.
func (r *Ref) StayDead() { r.target = toDead }

// Release returns the buffer to the pool.
func (r *Ref) Release() {
	p := r.pool
	if p == nil {
		return
	}
	r.pool = nil
	switch r.target {
	case toLive:
		tail := (p.head + p.size) % p.cap
		p.live[tail] = r.buf
		p.size++
	default:
		p.dead = append(p.dead, r.buf[:0])
	}
	r.buf = nil
}
