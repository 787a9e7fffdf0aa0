// Package ring implements a lock-free single-producer/single-consumer ring
// buffer of interleaved float32 samples, used as the output and input rings
// between the device callback thread and the engine pump.
package ring

import "sync/atomic"

// Buffer is a wait-free SPSC ring buffer of float32 samples. Exactly one
// goroutine may call Write (the producer) and exactly one may call Read (the
// consumer); the two may run concurrently without additional locking.
//
// One slot is always left empty so that head==tail is unambiguously "empty"
// (head never catches up to tail on a full buffer).
type Buffer struct {
	buf      []float32
	capacity uint64 // len(buf)
	head     atomic.Uint64 // next write position, producer-owned
	tail     atomic.Uint64 // next read position, consumer-owned
}

// New allocates a ring buffer holding capacitySamples usable samples. The
// backing array is sized capacitySamples+1 to reserve the sentinel slot.
func New(capacitySamples int) *Buffer {
	if capacitySamples < 1 {
		capacitySamples = 1
	}
	return &Buffer{
		buf:      make([]float32, capacitySamples+1),
		capacity: uint64(capacitySamples + 1),
	}
}

// Write copies up to len(src) samples into the buffer and returns the count
// actually written. It never blocks and never allocates. Producer-only.
func (b *Buffer) Write(src []float32) int {
	avail := b.AvailableWrite()
	n := len(src)
	if uint64(n) > avail {
		n = int(avail)
	}
	if n == 0 {
		return 0
	}
	head := b.head.Load()
	for i := 0; i < n; i++ {
		b.buf[(head+uint64(i))%b.capacity] = src[i]
	}
	// Release: the consumer's Acquire load of head happens-after these stores.
	b.head.Store(head + uint64(n))
	return n
}

// Read copies up to len(dst) samples out of the buffer and returns the count
// actually read. It never blocks and never allocates. Consumer-only.
func (b *Buffer) Read(dst []float32) int {
	avail := b.AvailableRead()
	n := len(dst)
	if uint64(n) > avail {
		n = int(avail)
	}
	if n == 0 {
		return 0
	}
	tail := b.tail.Load()
	for i := 0; i < n; i++ {
		dst[i] = b.buf[(tail+uint64(i))%b.capacity]
	}
	b.tail.Store(tail + uint64(n))
	return n
}

// AvailableRead reports how many samples are currently available to Read.
func (b *Buffer) AvailableRead() uint64 {
	return b.head.Load() - b.tail.Load()
}

// AvailableWrite reports how many samples can currently be Written without
// loss, honoring the one-slot sentinel.
func (b *Buffer) AvailableWrite() uint64 {
	return b.capacity - 1 - b.AvailableRead()
}

// Capacity returns the number of usable samples (excluding the sentinel
// slot) the buffer can hold.
func (b *Buffer) Capacity() int {
	return int(b.capacity - 1)
}

// Clear discards all buffered samples. Consumer-side only: it advances tail
// to head, so it must never be called concurrently with Write assuming the
// producer is still active, or freshly written samples could be dropped.
func (b *Buffer) Clear() {
	b.tail.Store(b.head.Load())
}
