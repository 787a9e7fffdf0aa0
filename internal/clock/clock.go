// Package clock implements the master sample clock (spec.md §4.4): the
// single timeline every clock-bound source renders against.
package clock

import (
	"sync/atomic"
)

// Mode selects between realtime dropout semantics and offline
// blocking-wait semantics, consulted by the mix engine.
type Mode int

const (
	// Realtime mixes whatever a source can produce within the current
	// cycle, substituting silence and emitting a dropout event otherwise.
	Realtime Mode = iota
	// Offline blocks per-source until data is available or a deterministic
	// timeout elapses, for bit-reproducible offline rendering.
	Offline
)

// Clock is the authoritative sample counter all synchronized sources
// render against. All methods are safe for concurrent use; the atomics
// give sources a cheap, lock-free way to read the current position.
type Clock struct {
	position atomic.Uint64 // current_sample_position
	session  atomic.Uint64 // increments on every seek
	sampleRate uint32
	channels   uint32
	mode       atomic.Int32
}

// New creates a Clock for the given sample rate and channel count, starting
// at position 0 in Realtime mode.
func New(sampleRate, channels int) *Clock {
	c := &Clock{sampleRate: uint32(sampleRate), channels: uint32(channels)}
	c.mode.Store(int32(Realtime))
	return c
}

// SampleRate returns the fixed sample rate this clock was created with.
func (c *Clock) SampleRate() int { return int(c.sampleRate) }

// Channels returns the fixed channel count this clock was created with.
func (c *Clock) Channels() int { return int(c.channels) }

// Mode returns the current mode.
func (c *Clock) Mode() Mode { return Mode(c.mode.Load()) }

// SetMode sets the current mode. Changing mode does not itself move the
// clock; it only changes how the mix engine and sources interpret a
// buffer that cannot be satisfied immediately.
func (c *Clock) SetMode(m Mode) { c.mode.Store(int32(m)) }

// CurrentSamplePosition returns the current position on the timeline, in
// samples at SampleRate.
func (c *Clock) CurrentSamplePosition() uint64 { return c.position.Load() }

// CurrentTimestamp returns the current position on the timeline, in
// seconds, as an exact rational computed from the sample position.
func (c *Clock) CurrentTimestamp() float64 {
	return float64(c.position.Load()) / float64(c.sampleRate)
}

// Advance moves the clock forward by frames samples. Called by the mix
// engine exactly once per output buffer, after samples have been pushed to
// the pump.
func (c *Clock) Advance(frames int) {
	c.position.Add(uint64(frames))
}

// SeekTo updates the current position to round(seconds*sampleRate) and
// increments the session counter so clock-bound sources can detect the
// discontinuity on their next read_at and invalidate any buffered look-ahead.
func (c *Clock) SeekTo(seconds float64) {
	pos := int64(seconds*float64(c.sampleRate) + 0.5)
	if pos < 0 {
		pos = 0
	}
	c.position.Store(uint64(pos))
	c.session.Add(1)
}

// Session returns the monotonic counter incremented on every seek. Sources
// compare their last-observed session against this to detect a timeline
// discontinuity, per spec.md §4.4's invariant.
func (c *Clock) Session() uint64 { return c.session.Load() }
