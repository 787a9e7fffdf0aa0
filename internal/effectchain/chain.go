// Package effectchain implements the ordered-list-behind-a-mutex /
// cached-snapshot-on-the-hot-path pattern spec.md §4.6 and §4.7 both call
// for: structural mutation (add/remove/reorder) takes a short mutex, while
// the realtime mix/source-read path only ever touches an immutable
// snapshot refreshed lazily when a "dirty" flag is observed.
package effectchain

import (
	"sync"
	"sync/atomic"
)

// Processor is the engine-wide effect interface (spec.md §3's
// EffectProcessor / §4.6–4.7). Process must not allocate and must leave
// len(buf) unchanged.
type Processor interface {
	ID() string
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	WetDry() float64
	SetWetDry(mix float64)
	// Initialize prepares the processor for the given stream format.
	// Idempotent when called again with the same sampleRate/channels.
	Initialize(sampleRate, channels int) error
	// Process runs the effect in place on an interleaved frame-count-sized
	// span. Chain.Process skips processors whose Enabled reports false;
	// applying the WetDry mix is left to each implementation.
	Process(buf []float32, channels int) error
	Reset()
}

// Chain is a mutable, ordered list of Processors with a lock-free hot path.
type Chain struct {
	mu          sync.Mutex
	processors  []Processor // authoritative list, mutex-protected
	dirty       atomic.Bool
	snapshot    atomic.Pointer[[]Processor]
	sampleRate  int
	channels    int
	initialized bool
}

// New returns an empty Chain.
func New() *Chain {
	c := &Chain{}
	empty := []Processor{}
	c.snapshot.Store(&empty)
	return c
}

// SetFormat records the stream format new processors are initialized
// against, and (re-)initializes any processors already in the chain.
func (c *Chain) SetFormat(sampleRate, channels int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sampleRate, c.channels, c.initialized = sampleRate, channels, true
	for _, p := range c.processors {
		if err := p.Initialize(sampleRate, channels); err != nil {
			return err
		}
	}
	return nil
}

// Add appends a processor to the end of the chain.
func (c *Chain) Add(p Processor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		if err := p.Initialize(c.sampleRate, c.channels); err != nil {
			return err
		}
	}
	c.processors = append(c.processors, p)
	c.dirty.Store(true)
	return nil
}

// Remove removes the processor with the given id, reporting whether one
// was found.
func (c *Chain) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.processors {
		if p.ID() == id {
			c.processors = append(c.processors[:i:i], c.processors[i+1:]...)
			c.dirty.Store(true)
			return true
		}
	}
	return false
}

// Clear removes every processor.
func (c *Chain) Clear() {
	c.mu.Lock()
	c.processors = nil
	c.mu.Unlock()
	c.dirty.Store(true)
}

// List returns a snapshot copy of the current processors, in order,
// regardless of dirtiness — used by callers that want to inspect or
// toggle Enabled without forcing a hot-path snapshot refresh.
func (c *Chain) List() []Processor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Processor, len(c.processors))
	copy(out, c.processors)
	return out
}

// refresh clears the dirty flag and rebuilds the published snapshot under
// the mutex, so a mutation that lands after the copy leaves dirty set for
// the next Process. Called from the hot path only when Process observes
// dirty via an acquire load.
func (c *Chain) refresh() {
	c.mu.Lock()
	c.dirty.Store(false)
	snap := make([]Processor, len(c.processors))
	copy(snap, c.processors)
	c.snapshot.Store(&snap)
	c.mu.Unlock()
}

// Process applies every processor in the current snapshot, in order, to
// buf. It never allocates in the common (non-dirty) path beyond what a
// processor's own Process does. A processor returning an error is skipped
// for this buffer and reported via onErr (may be nil).
func (c *Chain) Process(buf []float32, channels int, onErr func(id string, err error)) {
	if c.dirty.Load() {
		c.refresh()
	}
	snap := *c.snapshot.Load()
	for _, p := range snap {
		if !p.Enabled() {
			continue
		}
		if err := p.Process(buf, channels); err != nil && onErr != nil {
			onErr(p.ID(), err)
		}
	}
}

// Len reports the current processor count (mutex-protected, not hot path).
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.processors)
}
