// Package agc implements automatic gain control over interleaved
// multi-channel float32 PCM, generalized from the teacher's mono-only
// client/internal/agc (which operated on single-channel 20 ms frames) to
// the mixer's 1–32 channel frames of arbitrary length.
package agc

import "mixengine/internal/dsp"

const (
	// DefaultTarget is the desired RMS level (linear, ~-14 dBFS).
	DefaultTarget = 0.20

	// MinGain limits attenuation of loud signals to -20 dB.
	MinGain = 0.1
	// MaxGain allows up to +20 dB of amplification.
	MaxGain = 10.0

	// AttackCoeff controls how quickly gain is reduced when level exceeds
	// target; release is slower to avoid pumping artefacts.
	AttackCoeff = 0.80
	ReleaseCoeff = 0.02

	// minRMS suppresses gain updates on near-silent frames.
	minRMS = 0.001
)

// Controller is a channel-count-agnostic automatic gain controller. Zero
// value is not usable; use New().
type Controller struct {
	target float64
	gain   float64
}

// New returns a Controller at DefaultTarget and unity gain.
func New() *Controller {
	return &Controller{target: DefaultTarget, gain: 1.0}
}

// SetTargetLevel maps level ∈ [0,100] onto an RMS target ∈ [0.01, 0.50].
func (c *Controller) SetTargetLevel(level int) {
	c.target = 0.01 + float64(dsp.Clamp(float64(level), 0, 100))/100.0*0.49
}

// Target returns the current target RMS (linear amplitude).
func (c *Controller) Target() float64 { return c.target }

// Gain returns the current linear gain multiplier.
func (c *Controller) Gain() float64 { return c.gain }

// Process applies the current gain to buf in place, then updates the gain
// estimate from the pre-gain RMS, across however many interleaved channels
// buf holds.
func (c *Controller) Process(buf []float32) {
	if len(buf) == 0 {
		return
	}
	rms := float64(dsp.RMS(buf))

	g := float32(c.gain)
	for i, s := range buf {
		v := s * g
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		buf[i] = v
	}

	if rms < minRMS {
		return
	}

	desired := dsp.Clamp(c.target/rms, MinGain, MaxGain)

	coeff := ReleaseCoeff
	if desired < c.gain {
		coeff = AttackCoeff
	}
	c.gain += coeff * (desired - c.gain)
}

// Reset restores unity gain without changing the target.
func (c *Controller) Reset() { c.gain = 1.0 }
