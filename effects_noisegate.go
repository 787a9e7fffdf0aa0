package mixengine

import (
	"mixengine/internal/dsp"
	"mixengine/internal/noisegate"
)

// NoiseGateEffect wraps internal/noisegate.Gate (adapted from the teacher's
// mono-only client/internal/noisegate) as a chain-pluggable EffectProcessor.
type NoiseGateEffect struct {
	baseEffect
	gate    *noisegate.Gate
	scratch []float32
}

// NewNoiseGateEffect returns an enabled NoiseGateEffect at the default
// threshold and hold.
func NewNoiseGateEffect(id string) *NoiseGateEffect {
	return &NoiseGateEffect{baseEffect: newBaseEffect(id, "NoiseGate"), gate: noisegate.New()}
}

// SetThresholdLevel maps level ∈ [0,100] onto the gate's RMS threshold.
func (n *NoiseGateEffect) SetThresholdLevel(level int) { n.gate.SetThresholdLevel(level) }

// IsOpen reports whether the gate is currently passing audio.
func (n *NoiseGateEffect) IsOpen() bool { return n.gate.IsOpen() }

func (n *NoiseGateEffect) Initialize(sampleRate, channels int) error { return nil }

func (n *NoiseGateEffect) Process(buf []float32, channels int) error {
	mix := n.WetDry()
	if mix <= 0 {
		return nil
	}
	if mix >= 1 {
		n.gate.Process(buf)
		return nil
	}
	if cap(n.scratch) < len(buf) {
		n.scratch = make([]float32, len(buf))
	}
	wet := n.scratch[:len(buf)]
	copy(wet, buf)
	n.gate.Process(wet)
	dsp.WetDryMix(buf, buf, wet, mix)
	return nil
}

func (n *NoiseGateEffect) Reset() { n.gate.Reset() }
