package dsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMSOfSilenceIsZero(t *testing.T) {
	assert.Equal(t, float32(0), RMS(make([]float32, 8)))
}

func TestRMSOfConstantSignal(t *testing.T) {
	buf := []float32{0.5, 0.5, 0.5, 0.5}
	assert.InDelta(t, 0.5, RMS(buf), 1e-6)
}

func TestPeakAbsFindsLargestMagnitude(t *testing.T) {
	buf := []float32{0.1, -0.9, 0.3, -0.2}
	assert.Equal(t, float32(0.9), PeakAbs(buf))
}

func TestPerChannelPeakStereo(t *testing.T) {
	// L,R,L,R
	buf := []float32{0.2, -0.5, -0.9, 0.1}
	l, r := PerChannelPeak(buf, 2)
	assert.Equal(t, float32(0.9), l)
	assert.Equal(t, float32(0.5), r)
}

func TestPerChannelPeakMono(t *testing.T) {
	buf := []float32{0.1, -0.4, 0.2}
	l, r := PerChannelPeak(buf, 1)
	assert.Equal(t, l, r)
	assert.Equal(t, float32(0.4), l)
}

func TestApplyGainScalesEverySample(t *testing.T) {
	buf := []float32{1, 2, 3}
	ApplyGain(buf, 2)
	assert.Equal(t, []float32{2, 4, 6}, buf)
}

func TestMixIntoSumsAdditively(t *testing.T) {
	dst := []float32{1, 1, 1}
	MixInto(dst, []float32{1, 2, 3})
	assert.Equal(t, []float32{2, 3, 4}, dst)
}

func TestWetDryMixBoundaries(t *testing.T) {
	dry := []float32{0, 0}
	wet := []float32{1, 1}
	dst := make([]float32, 2)

	WetDryMix(dst, dry, wet, 0)
	assert.Equal(t, dry, dst)

	WetDryMix(dst, dry, wet, 1)
	assert.Equal(t, wet, dst)

	WetDryMix(dst, dry, wet, 0.5)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, toFloat64(dst), 1e-6)
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
