package mixengine

import (
	"mixengine/internal/agc"
	"mixengine/internal/dsp"
)

// AGCEffect wraps internal/agc.Controller (adapted from the teacher's
// mono-only client/internal/agc) as a chain-pluggable EffectProcessor.
type AGCEffect struct {
	baseEffect
	ctrl    *agc.Controller
	scratch []float32
}

// NewAGCEffect returns an enabled AGCEffect at agc.DefaultTarget.
func NewAGCEffect(id string) *AGCEffect {
	return &AGCEffect{baseEffect: newBaseEffect(id, "AGC"), ctrl: agc.New()}
}

// SetTargetLevel maps level ∈ [0,100] onto the controller's RMS target.
func (a *AGCEffect) SetTargetLevel(level int) { a.ctrl.SetTargetLevel(level) }

// Gain returns the controller's current linear gain (informational).
func (a *AGCEffect) Gain() float64 { return a.ctrl.Gain() }

func (a *AGCEffect) Initialize(sampleRate, channels int) error { return nil }

func (a *AGCEffect) Process(buf []float32, channels int) error {
	mix := a.WetDry()
	if mix <= 0 {
		return nil
	}
	if mix >= 1 {
		a.ctrl.Process(buf)
		return nil
	}
	if cap(a.scratch) < len(buf) {
		a.scratch = make([]float32, len(buf))
	}
	wet := a.scratch[:len(buf)]
	copy(wet, buf)
	a.ctrl.Process(wet)
	dsp.WetDryMix(buf, buf, wet, mix)
	return nil
}

func (a *AGCEffect) Reset() { a.ctrl.Reset() }
