// Package pump owns the device adapter and the pair of lock-free rings
// sitting between it and the mix engine (spec.md §4.1/§4.3): an output ring
// the mix thread fills and the device callback drains, and an input ring
// the device callback fills and capture sources drain. The device callback
// itself must not allocate, lock, or block — this package is where that
// contract is enforced.
package pump

import (
	"log"
	"sync/atomic"
	"time"

	"mixengine/internal/backpressure"
	"mixengine/internal/device"
	"mixengine/internal/mxerr"
	"mixengine/internal/ring"
)

// backpressureWindowCycles/backpressureSmoothingAlpha tune how quickly the
// prebuffer depth ladder (internal/backpressure) reacts to sustained
// overflow/underrun pressure versus a single noisy buffer.
const (
	backpressureWindowCycles   = 50
	backpressureSmoothingAlpha = 0.3
)

// Stats is a snapshot of pump-level counters, published outward for
// diagnostics and for the adaptive backpressure tuner.
type Stats struct {
	Overflows     uint64
	Underruns     uint64
	DepthMultiple int
}

// Pump bridges one device.Adapter to an output ring and, if input is
// enabled, an input ring.
type Pump struct {
	adapter  device.Adapter
	backend  device.Backend
	cfg      device.Config
	outRing  *ring.Buffer
	inRing   *ring.Buffer
	overflow atomic.Uint64
	underrun atomic.Uint64

	// prebuffering gates onBuffer's output to silence from Start until the
	// output ring first reaches the current prebuffer threshold (spec.md
	// §4.3: "primes the output ring with one buffer of silence, flips a
	// prebuffer flag... then transitions to steady playback").
	prebuffering atomic.Bool

	// depthMultiple is how many frames_per_buffer units deep the prebuffer
	// threshold is set to, a position on backpressure.Ladder. Only onBuffer
	// (the realtime callback thread, which runs serially) writes it; Stats
	// reads it from other goroutines, hence the atomic rather than a plain
	// int.
	depthMultiple atomic.Int64
	tracker       *backpressure.Tracker
}

// New opens a device adapter for the given backend and config, sizing both
// rings at least 4x frames_per_buffer x channels to absorb scheduling
// jitter, per spec.md §4.1's ring-capacity guarantee.
func New(backend device.Backend, cfg device.Config) (*Pump, error) {
	capacity := cfg.FramesPerBuffer * cfg.Channels * 4
	if capacity < 1 {
		return nil, mxerr.New(mxerr.ConfigInvalid, "frames_per_buffer and channels must be positive")
	}

	p := &Pump{backend: backend, cfg: cfg}
	// Default prebuffer threshold per spec.md §4.3: frames_per_buffer x 2.
	p.depthMultiple.Store(int64(backpressure.DefaultDepth))
	p.tracker = backpressure.NewTracker(backpressureWindowCycles, backpressureSmoothingAlpha)
	if cfg.EnableOutput {
		p.outRing = ring.New(capacity)
	}
	if cfg.EnableInput {
		p.inRing = ring.New(capacity)
	}

	adapter, err := device.Open(backend, cfg, p.onBuffer)
	if err != nil {
		return nil, err
	}
	p.adapter = adapter
	return p, nil
}

// prebufferThresholdSamples returns the current prebuffer threshold in
// samples, as depthMultiple x frames_per_buffer x channels.
func (p *Pump) prebufferThresholdSamples() uint64 {
	return uint64(p.depthMultiple.Load()) * uint64(p.cfg.FramesPerBuffer) * uint64(p.cfg.Channels)
}

// onBuffer is the realtime device callback: pull frameCount*channels samples
// from outRing into output (substituting silence and counting underruns on
// shortfall), and push input into inRing (dropping the input samples that
// do not fit and counting overflow on a full ring). Must not allocate. Every invocation is
// also fed to the backpressure tracker, which adjusts depthMultiple once per
// closed window so sustained pressure pushes the prebuffer deeper and a
// clean run lets it settle back down (internal/backpressure's Ladder).
func (p *Pump) onBuffer(input, output []float32, frameCount int) {
	var overflowed, underran bool
	if p.outRing != nil && len(output) > 0 {
		if p.prebuffering.Load() && p.outRing.AvailableRead() >= p.prebufferThresholdSamples() {
			p.prebuffering.Store(false)
		}
		if p.prebuffering.Load() {
			for i := range output {
				output[i] = 0
			}
		} else {
			n := p.outRing.Read(output)
			if n < len(output) {
				for i := n; i < len(output); i++ {
					output[i] = 0
				}
				p.underrun.Add(1)
				underran = true
			}
		}
	}
	if p.inRing != nil && len(input) > 0 {
		n := p.inRing.Write(input)
		if n < len(input) {
			p.overflow.Add(1)
			overflowed = true
		}
	}
	if p.tracker.Observe(overflowed, underran) {
		overflowRate, underrunRate := p.tracker.Rates()
		next := backpressure.NextDepth(int(p.depthMultiple.Load()), overflowRate, underrunRate)
		p.depthMultiple.Store(int64(next))
	}
}

// Channels returns the configured channel count.
func (p *Pump) Channels() int { return p.cfg.Channels }

// Backend returns the device backend this pump was opened against.
func (p *Pump) Backend() device.Backend { return p.backend }

// Start primes the output ring with one buffer of silence, arms the
// prebuffer gate so the device callback outputs silence until the ring
// first reaches the current prebuffer threshold, then starts the device
// adapter (spec.md §4.3).
func (p *Pump) Start() error {
	if p.outRing != nil {
		silence := make([]float32, p.cfg.FramesPerBuffer*p.cfg.Channels)
		p.outRing.Write(silence)
		p.prebuffering.Store(true)
	}
	return p.adapter.Start()
}

// Stop stops the device adapter.
func (p *Pump) Stop() error { return p.adapter.Stop() }

// Close stops and releases the device adapter.
func (p *Pump) Close() error {
	if err := p.adapter.Stop(); err != nil {
		log.Printf("[pump] stop on close: %v", err)
	}
	return p.adapter.Close()
}

// Tick drives the underlying adapter's callback synchronously when it
// implements device.Tickable (the Null backend), used by offline rendering
// and deterministic tests that have no realtime OS thread to rely on.
func (p *Pump) Tick() {
	if t, ok := p.adapter.(device.Tickable); ok {
		t.Pump()
	}
}

// Send pushes samples into the output ring, waiting up to timeout for room
// if the ring is momentarily full, then dropping whatever doesn't fit. This
// is the bounded-wait-then-drop semantics the mix engine's per-cycle push to
// the pump relies on: the mix thread must never block indefinitely on a
// stalled device.
func (p *Pump) Send(samples []float32, timeout time.Duration) (written int, dropped int) {
	if p.outRing == nil {
		return 0, len(samples)
	}
	deadline := time.Now().Add(timeout)
	for {
		n := p.outRing.Write(samples[written:])
		written += n
		if written >= len(samples) {
			return written, 0
		}
		if time.Now().After(deadline) {
			p.overflow.Add(1)
			return written, len(samples) - written
		}
		time.Sleep(time.Millisecond)
	}
}

// Receive drains whatever is currently available from the input ring into
// dst without blocking, returning the number of samples copied. It does not
// wait for data and does not write dst beyond the samples copied, so with an
// empty ring it returns 0 and dst keeps whatever the caller put in it.
func (p *Pump) Receive(dst []float32) int {
	if p.inRing == nil {
		return 0
	}
	return p.inRing.Read(dst)
}

// Stats returns a snapshot of overflow/underrun counters.
func (p *Pump) Stats() Stats {
	return Stats{
		Overflows:     p.overflow.Load(),
		Underruns:     p.underrun.Load(),
		DepthMultiple: int(p.depthMultiple.Load()),
	}
}
