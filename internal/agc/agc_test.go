package agc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStartsAtUnityGain(t *testing.T) {
	c := New()
	assert.Equal(t, 1.0, c.Gain())
	assert.Equal(t, DefaultTarget, c.Target())
}

func TestSetTargetLevelMapsRange(t *testing.T) {
	c := New()
	c.SetTargetLevel(0)
	assert.InDelta(t, 0.01, c.Target(), 1e-9)
	c.SetTargetLevel(100)
	assert.InDelta(t, 0.50, c.Target(), 1e-9)
	c.SetTargetLevel(-10)
	assert.InDelta(t, 0.01, c.Target(), 1e-9)
}

func TestProcessBoostsQuietStereoSignalTowardTarget(t *testing.T) {
	c := New()
	c.SetTargetLevel(50) // mid-range target
	buf := make([]float32, 960*2)
	for i := range buf {
		buf[i] = 0.02 // quiet interleaved stereo content
	}
	for i := 0; i < 200; i++ {
		frame := append([]float32(nil), buf...)
		c.Process(frame)
	}
	assert.Greater(t, c.Gain(), 1.0)
}

func TestProcessDoesNotUpdateGainOnSilence(t *testing.T) {
	c := New()
	buf := make([]float32, 256)
	c.Process(buf)
	assert.Equal(t, 1.0, c.Gain())
}

func TestProcessClampsOutputToUnitRange(t *testing.T) {
	c := New()
	c.gain = MaxGain
	buf := []float32{0.9, -0.9}
	c.Process(buf)
	for _, v := range buf {
		assert.LessOrEqual(t, v, float32(1.0))
		assert.GreaterOrEqual(t, v, float32(-1.0))
	}
}

func TestResetRestoresUnityGain(t *testing.T) {
	c := New()
	c.gain = 5
	c.Reset()
	assert.Equal(t, 1.0, c.Gain())
}
