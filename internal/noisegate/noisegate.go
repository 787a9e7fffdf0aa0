// Package noisegate implements a hard noise gate over interleaved
// multi-channel float32 PCM, generalized from the teacher's mono-only
// client/internal/noisegate to the mixer's 1–32 channel frames.
package noisegate

import "mixengine/internal/dsp"

const (
	// DefaultThreshold is the RMS level below which audio is gated (~-40 dBFS).
	DefaultThreshold = float32(0.01)

	// DefaultHold is the number of Process calls to keep the gate open after
	// the signal drops below threshold, absorbing brief pauses.
	DefaultHold = 10
)

// Gate zeroes buffers whose RMS falls below threshold, with a hold window
// to avoid chopping sustained material during brief dips.
type Gate struct {
	threshold float32
	hold      int
	remaining int
	open      bool
}

// New returns a Gate with DefaultThreshold and DefaultHold.
func New() *Gate {
	return &Gate{threshold: DefaultThreshold, hold: DefaultHold}
}

// SetThresholdLevel maps level ∈ [0,100] onto an RMS threshold ∈ [0.001, 0.10].
func (g *Gate) SetThresholdLevel(level int) {
	g.threshold = float32(0.001 + dsp.Clamp(float64(level), 0, 100)/100.0*0.099)
}

// Threshold returns the current RMS threshold (linear amplitude).
func (g *Gate) Threshold() float32 { return g.threshold }

// IsOpen reports whether the gate is currently passing audio.
func (g *Gate) IsOpen() bool { return g.open }

// Process gates buf in place across all interleaved channels, returning the
// RMS measured before any gating (useful for level meters).
func (g *Gate) Process(buf []float32) float32 {
	rms := dsp.RMS(buf)

	if rms >= g.threshold {
		g.remaining = g.hold
		g.open = true
		return rms
	}

	if g.remaining > 0 {
		g.remaining--
		g.open = true
		return rms
	}

	for i := range buf {
		buf[i] = 0
	}
	g.open = false
	return rms
}

// Reset clears the hold counter without changing the threshold.
func (g *Gate) Reset() {
	g.remaining = 0
	g.open = false
}
