package noisegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoudBufferPassesThrough(t *testing.T) {
	g := New()
	buf := []float32{0.5, -0.5, 0.5, -0.5}
	want := append([]float32(nil), buf...)
	g.Process(buf)
	assert.Equal(t, want, buf)
	assert.True(t, g.IsOpen())
}

func TestQuietBufferIsZeroedAfterHoldExpires(t *testing.T) {
	g := New()
	g.hold = 2
	quiet := []float32{0.001, -0.001}

	g.Process(append([]float32(nil), quiet...)) // remaining starts at 0, so the gate stays closed
	g.Process(append([]float32(nil), quiet...))
	b := append([]float32(nil), quiet...)
	g.Process(b)
	g.Process(b)
	b2 := append([]float32(nil), quiet...)
	g.Process(b2)
	assert.False(t, g.IsOpen())
	assert.Equal(t, []float32{0, 0}, b2)
}

func TestHoldKeepsGateOpenAcrossBriefDip(t *testing.T) {
	g := New()
	g.SetThresholdLevel(50)
	loud := []float32{0.9, 0.9}
	quiet := []float32{0.001, 0.001}

	g.Process(append([]float32(nil), loud...))
	assert.True(t, g.IsOpen())

	b := append([]float32(nil), quiet...)
	g.Process(b)
	assert.True(t, g.IsOpen(), "hold should keep gate open immediately after a loud frame")
	assert.NotEqual(t, []float32{0, 0}, b, "held-open frame must not be zeroed")
}

func TestSetThresholdLevelMapsRange(t *testing.T) {
	g := New()
	g.SetThresholdLevel(0)
	assert.InDelta(t, 0.001, g.Threshold(), 1e-6)
	g.SetThresholdLevel(100)
	assert.InDelta(t, 0.10, g.Threshold(), 1e-6)
}

func TestResetClearsHoldAndCloses(t *testing.T) {
	g := New()
	g.Process([]float32{0.9, 0.9})
	g.Reset()
	assert.False(t, g.IsOpen())
}
