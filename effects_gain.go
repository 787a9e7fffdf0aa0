package mixengine

import "mixengine/internal/dsp"

// GainEffect applies a constant linear gain, wet/dry-aware.
type GainEffect struct {
	baseEffect
	gain    float32
	scratch []float32 // reused wet-signal buffer, grown once to frames_per_buffer*channels
}

// NewGainEffect returns an enabled GainEffect at the given linear gain.
func NewGainEffect(id string, gain float32) *GainEffect {
	return &GainEffect{baseEffect: newBaseEffect(id, "Gain"), gain: gain}
}

// SetGain sets the linear gain multiplier.
func (g *GainEffect) SetGain(gain float32) { g.gain = gain }

// Gain returns the current linear gain multiplier.
func (g *GainEffect) Gain() float32 { return g.gain }

func (g *GainEffect) Initialize(sampleRate, channels int) error { return nil }

func (g *GainEffect) Process(buf []float32, channels int) error {
	mix := g.WetDry()
	if mix <= 0 {
		return nil
	}
	if mix >= 1 {
		dsp.ApplyGain(buf, g.gain)
		return nil
	}
	if cap(g.scratch) < len(buf) {
		g.scratch = make([]float32, len(buf))
	}
	wet := g.scratch[:len(buf)]
	copy(wet, buf)
	dsp.ApplyGain(wet, g.gain)
	dsp.WetDryMix(buf, buf, wet, mix)
	return nil
}

func (g *GainEffect) Reset() {}
