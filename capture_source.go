package mixengine

import (
	"math"
	"sync"
)

// CaptureSource is a live-input source backed by a Pump's capture ring
// (spec.md §3: "duration may be ∞ for live input"). It has no fixed
// duration and is not meaningfully clock-bound in the decode-ahead sense —
// read_at simply drains whatever the pump has captured, substituting
// silence when nothing is available yet, matching the realtime underrun
// rule in spec.md §4.5.
type CaptureSource struct {
	id   SourceID
	pump *Pump

	mu          sync.Mutex
	state       SourceState
	volume      float64
	clock       *MasterClock
	startOffset float64
}

// NewCaptureSource wraps pump's input ring as a Source. pump must have been
// opened with input capture enabled.
func NewCaptureSource(pump *Pump) *CaptureSource {
	return &CaptureSource{
		id:     NewSourceID(),
		pump:   pump,
		state:  Idle,
		volume: 1.0,
	}
}

func (c *CaptureSource) ID() SourceID      { return c.id }
func (c *CaptureSource) Channels() int     { return c.pump.Channels() }
func (c *CaptureSource) KindName() string  { return "CaptureSource" }
func (c *CaptureSource) Duration() float64 { return math.Inf(1) }

func (c *CaptureSource) State() SourceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *CaptureSource) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *CaptureSource) SetVolume(v float64) {
	c.mu.Lock()
	c.volume = v
	c.mu.Unlock()
}

func (c *CaptureSource) Play() error {
	c.mu.Lock()
	c.state = Playing
	c.mu.Unlock()
	return nil
}

func (c *CaptureSource) Pause() error {
	c.mu.Lock()
	c.state = Paused
	c.mu.Unlock()
	return nil
}

func (c *CaptureSource) Stop() error {
	c.mu.Lock()
	c.state = Stopped
	c.mu.Unlock()
	return nil
}

func (c *CaptureSource) AttachToClock(clk *MasterClock, startOffsetSeconds float64) {
	c.mu.Lock()
	c.clock = clk
	c.startOffset = startOffsetSeconds
	c.mu.Unlock()
}

func (c *CaptureSource) Read(buf []float32, frames int) (int, error) {
	n := c.pump.Receive(buf)
	c.applyVolume(buf)
	return n / channelsOrOne(c), nil
}

// channelsOrOne guards against a capture source queried before the pump
// reports a channel count (e.g. a Null-backend pump with input disabled).

func (c *CaptureSource) ReadAt(timestamp float64, buf []float32, frames int) ReadResult {
	n := c.pump.Receive(buf)
	fullyServiced := n >= len(buf)
	if !fullyServiced {
		zero(buf[n:], len(buf)-n)
	}
	c.applyVolume(buf)
	return ReadResult{FramesRead: frames, Completed: fullyServiced}
}

func (c *CaptureSource) applyVolume(buf []float32) {
	c.mu.Lock()
	vol := c.volume
	c.mu.Unlock()
	if vol == 1.0 {
		return
	}
	for i := range buf {
		buf[i] *= float32(vol)
	}
}

func channelsOrOne(c *CaptureSource) int {
	if ch := c.Channels(); ch > 0 {
		return ch
	}
	return 1
}

var (
	_ Source           = (*CaptureSource)(nil)
	_ ClockBoundSource = (*CaptureSource)(nil)
)
